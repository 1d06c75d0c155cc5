// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenValidator はベアラートークンの検証に必要なインターフェース。
// token.Validatorの部分集合として定義する。
type TokenValidator interface {
	Validate(raw string) (*model.Identity, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・形式不正・署名不正・期限切れはすべて同一の401レスポンスになり、
// レスポンスからは失敗理由を区別できない。理由はメトリクスとログにのみ残す。
func NewAuthMiddleware(validator TokenValidator, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)

			identity, err := validator.Validate(raw)
			if err != nil {
				reason := rejectReason(err)
				collector.RecordTokenRejected(reason)
				slog.Info("token rejected",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken はAuthorizationヘッダーからトークン部分を取り出す。
// "Bearer "プレフィックスがない場合は空文字列を返す。
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// rejectReason は検証エラーをメトリクスのラベル値に変換する。
func rejectReason(err error) string {
	switch {
	case errors.Is(err, token.ErrTokenMissing):
		return "missing"
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	case errors.Is(err, token.ErrSignatureInvalid):
		return "signature"
	default:
		return "malformed"
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
