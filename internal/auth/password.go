package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch はパスワードがハッシュと一致しない場合に返される
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを作成する。
// costが範囲外の場合はbcrypt.DefaultCostを使う。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードをbcryptハッシュに変換する。
// ソルトはbcryptが内部で生成するため、同じ入力でも毎回異なるハッシュになる。
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hashed), nil
}

// Compare は平文パスワードとハッシュを照合する。
// 一致しない場合はErrPasswordMismatchを返す。
func (h *PasswordHasher) Compare(hashed, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("パスワードの照合に失敗: %w", err)
	}
	return nil
}
