// Package auth はユーザー登録・ログインと所有権チェックを提供する。
// トークンは完全にステートレスで、サーバー側にセッション状態を持たない。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/token"
)

const maxPasswordLength = 100

// TokenIssuer は認証成功時に署名付きトークンを発行する
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// Service は認証関連のユースケースを実装する
type Service struct {
	userRepo          repository.UserRepository
	hasher            *PasswordHasher
	issuer            TokenIssuer
	passwordMinLength int
	logger            *slog.Logger
}

// NewService はServiceを作成する
func NewService(userRepo repository.UserRepository, hasher *PasswordHasher, issuer TokenIssuer, passwordMinLength int, logger *slog.Logger) *Service {
	return &Service{
		userRepo:          userRepo,
		hasher:            hasher,
		issuer:            issuer,
		passwordMinLength: passwordMinLength,
		logger:            logger,
	}
}

// Credentials はサインアップ・サインインの入力
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult は認証成功時の結果。トークンと認証済みユーザーを持つ。
type AuthResult struct {
	Token string
	User  *model.User
}

// SignUp は新規ユーザーを登録し、トークンを発行する。
// メールアドレスは小文字に正規化してから保存する。
func (s *Service) SignUp(ctx context.Context, creds Credentials) (*AuthResult, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if err := s.validatePassword(creds.Password); err != nil {
		return nil, err
	}

	// 事前チェック。同時リクエストのレースはCreate側のユニーク制約で塞ぐ。
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}

	tokenString, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)

	return &AuthResult{Token: tokenString, User: user}, nil
}

// SignIn はメールアドレスとパスワードを検証し、トークンを発行する。
// ユーザー不在とパスワード不一致は呼び出し側から区別できない。
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*AuthResult, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	if user == nil {
		s.logger.Info("signin failed", "reason", "unknown_email")
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			s.logger.Info("signin failed", "reason", "password_mismatch", "user_id", user.ID)
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, err
	}

	tokenString, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗: %w", err)
	}

	s.logger.Info("user signed in", "user_id", user.ID)

	return &AuthResult{Token: tokenString, User: user}, nil
}

// CurrentUser はトークン由来のIDからユーザーを取得する
func (s *Service) CurrentUser(ctx context.Context, identity *model.Identity) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	if user == nil {
		// トークンは有効だがユーザーが削除済みの場合
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// normalizeEmail はメールアドレスを正規化し、形式を検証する
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) < 3 || len(email) > 255 {
		return "", model.NewInvalidEmailError()
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", model.NewInvalidEmailError()
	}
	return email, nil
}

func (s *Service) validatePassword(password string) error {
	// 長さ制限はバイト数ではなくルーン数で判定する
	n := utf8.RuneCountInString(password)
	if n < s.passwordMinLength || n > maxPasswordLength {
		return model.NewWeakPasswordError(s.passwordMinLength)
	}
	return nil
}

// インターフェース実装の検証
var _ TokenIssuer = (*token.Issuer)(nil)
