// Package token はステートレス認証トークンの発行と検証を提供する。
//
// トークンはHS256署名のJWTで、サーバー側にセッション状態を持たない。
// 発行側と検証側は同一の署名キーを共有し、キーは起動時の設定からのみ注入される。
// 検証はDBに問い合わせない純粋な処理であり、並行呼び出しに対して安全である。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskman/internal/model"
)

// 検証失敗の閉じたエラー集合。
// HTTP層はこれらをすべて同一の401レスポンスにマッピングする
// （失敗理由の区別はログとメトリクスのみに残す）。
var (
	// ErrTokenMissing はトークンが提示されなかったことを表す。
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed はトークンが解析できない、または必須クレームを欠くことを表す。
	ErrTokenMalformed = errors.New("token malformed")
	// ErrSignatureInvalid は署名が共有キーと一致しないことを表す。
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired はトークンの有効期限が切れていることを表す。
	ErrTokenExpired = errors.New("token expired")
)

// Claims はトークンに署名して埋め込むクレームセット。
// subjectにユーザーID、emailにメールアドレスを保持する。
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer は検証済みの身元に対してトークンを発行する。
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string

	// now はテストからの時刻注入用。nilの場合はtime.Nowを使用する。
	now func() time.Time
}

// NewIssuer はIssuerを生成する。
// signingKeyの妥当性（最小長）はconfig.Loadが起動時に保証する。
func NewIssuer(signingKey []byte, ttl time.Duration, issuer string) *Issuer {
	return &Issuer{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
	}
}

// Issue はユーザーIDとメールアドレスからトークンを発行する。
// 同一ユーザーに再発行しても独立したトークンとなり、有効期限は発行時刻から再計算される。
func (i *Issuer) Issue(userID, email string) (string, error) {
	nowFn := i.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validator はトークンを検証し、認証済みの身元を取り出す。
type Validator struct {
	signingKey []byte

	// now はテストからの時刻注入用。nilの場合はtime.Nowを使用する。
	now func() time.Time
}

// NewValidator はValidatorを生成する。
func NewValidator(signingKey []byte) *Validator {
	return &Validator{signingKey: signingKey}
}

// Validate は生のトークン文字列を検証し、認証済みの身元を返す。
// 失敗時はErrTokenMissing、ErrTokenMalformed、ErrSignatureInvalid、
// ErrTokenExpiredのいずれかを（ラップして）返す。
// 署名アルゴリズムはHMACのみを受け付け、alg置換攻撃を拒否する。
func (v *Validator) Validate(raw string) (*model.Identity, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	nowFn := v.now
	if nowFn == nil {
		nowFn = time.Now
	}

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithTimeFunc(nowFn))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if !t.Valid {
		return nil, ErrSignatureInvalid
	}

	// 必須クレームの存在確認
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: required claims absent", ErrTokenMalformed)
	}

	return &model.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
	}, nil
}
