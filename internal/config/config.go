// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// minSecretLength はトークン署名キーの最小長。
// これより短いキーではプロセスを起動させない。
const minSecretLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	AuthSecret        string
	TokenTTL          time.Duration
	TokenIssuer       string
	BcryptCost        int
	PasswordMinLength int

	// Rate Limit
	RateLimitGeneral int // 認証済みAPI全般（req/min/user）
	RateLimitAuth    int // サインアップ・サインイン（req/min/IP）

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、および署名キーが短すぎる場合はエラーを返す。
// 署名キーの検証はここで行い、不正な状態でトークンを発行できないようにする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		missing = append(missing, "AUTH_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.AuthSecret) < minSecretLength {
		return nil, fmt.Errorf("AUTH_SECRET must be at least %d characters (got %d)", minSecretLength, len(cfg.AuthSecret))
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 168*time.Hour)
	cfg.TokenIssuer = getEnvString("TOKEN_ISSUER", "taskman")
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.PasswordMinLength = getEnvInt("PASSWORD_MIN_LENGTH", 8)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
