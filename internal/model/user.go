// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュのみを保持し、平文パスワードは一切保存しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity は認証済みリクエストの主体を表す。
// トークン検証の成功時に生成され、以降のリクエスト処理では
// この値を所有権判定の唯一の根拠として扱う。
type Identity struct {
	ID    string
	Email string
}
