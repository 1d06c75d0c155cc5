package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// APIErrorStatus はAPIエラーコードをHTTPステータスコードに対応づける。
func APIErrorStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case "AUTHENTICATION_REQUIRED":
		return http.StatusUnauthorized
	case "INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	case "NOT_PERMITTED":
		return http.StatusForbidden
	case "TASK_NOT_FOUND", "USER_NOT_FOUND":
		return http.StatusNotFound
	case "EMAIL_TAKEN":
		return http.StatusConflict
	case "WEAK_PASSWORD", "INVALID_EMAIL", "INVALID_TITLE", "INVALID_DESCRIPTION":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
