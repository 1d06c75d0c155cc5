package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, identity *model.Identity) ([]*model.Task, error)
	Create(ctx context.Context, identity *model.Identity, input task.CreateInput) (*model.Task, error)
	Get(ctx context.Context, identity *model.Identity, taskID string) (*model.Task, error)
	Update(ctx context.Context, identity *model.Identity, taskID string, input task.UpdateInput) (*model.Task, error)
	SetCompletion(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error)
	Delete(ctx context.Context, identity *model.Identity, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
// パスの{userID}とトークンのユーザーIDの一致を各操作の前に検証し、
// 不一致なら403を返す。タスクの取得自体は常にトークンのユーザーIDで行う。
type TaskHandler struct {
	service   TaskServiceInterface
	collector metrics.MetricsCollector
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, collector metrics.MetricsCollector) *TaskHandler {
	return &TaskHandler{
		service:   service,
		collector: collector,
	}
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// authorizePathUser はパスの{userID}が認証済みユーザーと一致するか検証する。
// 一致しない場合は403レスポンスを書き込み、nilを返す。
func (h *TaskHandler) authorizePathUser(w http.ResponseWriter, r *http.Request) *model.Identity {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return nil
	}

	pathUserID := chi.URLParam(r, "userID")
	if err := auth.Authorize(identity, pathUserID); err != nil {
		h.collector.RecordOwnershipDenied()
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewNotPermittedError())
		return nil
	}

	return identity
}

// ListTasks はユーザーのタスク一覧を作成日時の昇順で返す。
// GET /api/{userID}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	tasks, err := h.service.List(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空でもnullではなく[]を返す
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, newTaskResponse(t))
	}

	writeJSON(w, http.StatusOK, responses)
}

// CreateTask は新しいタスクを作成する。
// POST /api/{userID}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	var input task.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), identity, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(created))
}

// GetTask はタスクを1件取得する。
// GET /api/{userID}/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	taskID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), identity, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(found))
}

// UpdateTask はタスクを部分更新する。
// PUT /api/{userID}/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	taskID := chi.URLParam(r, "id")

	var input task.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	updated, err := h.service.Update(r.Context(), identity, taskID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(updated))
}

// completionRequest は完了状態変更リクエストのボディ。
type completionRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// CompleteTask はタスクの完了状態をリクエストボディの値に設定する。
// PATCH /api/{userID}/tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	taskID := chi.URLParam(r, "id")

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	updated, err := h.service.SetCompletion(r.Context(), identity, taskID, req.IsCompleted)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(updated))
}

// DeleteTask はタスクを削除する。
// DELETE /api/{userID}/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity := h.authorizePathUser(w, r)
	if identity == nil {
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
