// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, creds auth.Credentials) (*auth.AuthResult, error)
	SignIn(ctx context.Context, creds auth.Credentials) (*auth.AuthResult, error)
	CurrentUser(ctx context.Context, identity *model.Identity) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// authResponse はサインアップ・サインイン成功時のAPIレスポンス。
type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func newAuthResponse(result *auth.AuthResult) authResponse {
	return authResponse{
		Token: result.Token,
		User: userResponse{
			ID:        result.User.ID,
			Email:     result.User.Email,
			CreatedAt: result.User.CreatedAt,
		},
	}
}

// Signup は新規ユーザーを登録し、トークンを発行する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	result, err := h.service.SignUp(r.Context(), creds)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordSignup()

	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

// Signin はメールアドレスとパスワードを検証し、トークンを発行する。
// POST /auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	result, err := h.service.SignIn(r.Context(), creds)
	if err != nil {
		h.collector.RecordSigninFailure()
		handleServiceError(w, err)
		return
	}

	h.collector.RecordSigninSuccess()

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// Signout はサインアウトを処理する。
// トークンはステートレスでサーバー側に破棄すべき状態がないため、
// クライアントがトークンを破棄することを期待して204を返す。
// POST /auth/signout
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在の認証済みユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
