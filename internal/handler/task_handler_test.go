package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

type mockTaskService struct {
	listFn          func(ctx context.Context, identity *model.Identity) ([]*model.Task, error)
	createFn        func(ctx context.Context, identity *model.Identity, input task.CreateInput) (*model.Task, error)
	getFn           func(ctx context.Context, identity *model.Identity, taskID string) (*model.Task, error)
	updateFn        func(ctx context.Context, identity *model.Identity, taskID string, input task.UpdateInput) (*model.Task, error)
	setCompletionFn func(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error)
	deleteFn        func(ctx context.Context, identity *model.Identity, taskID string) error
}

func (m *mockTaskService) List(ctx context.Context, identity *model.Identity) ([]*model.Task, error) {
	return m.listFn(ctx, identity)
}

func (m *mockTaskService) Create(ctx context.Context, identity *model.Identity, input task.CreateInput) (*model.Task, error) {
	return m.createFn(ctx, identity, input)
}

func (m *mockTaskService) Get(ctx context.Context, identity *model.Identity, taskID string) (*model.Task, error) {
	return m.getFn(ctx, identity, taskID)
}

func (m *mockTaskService) Update(ctx context.Context, identity *model.Identity, taskID string, input task.UpdateInput) (*model.Task, error) {
	return m.updateFn(ctx, identity, taskID, input)
}

func (m *mockTaskService) SetCompletion(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error) {
	return m.setCompletionFn(ctx, identity, taskID, completed)
}

func (m *mockTaskService) Delete(ctx context.Context, identity *model.Identity, taskID string) error {
	return m.deleteFn(ctx, identity, taskID)
}

// newTaskTestRouter はタスクルートのみを構成したテスト用ルーターを返す。
// 認証ミドルウェアは通さず、コンテキストに直接identityを注入する。
func newTaskTestRouter(service TaskServiceInterface, collector *mockCollector, identity *model.Identity) http.Handler {
	r := chi.NewRouter()
	h := NewTaskHandler(service, collector)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identity != nil {
				req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Route("/api/{userID}/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
			r.Patch("/complete", h.CompleteTask)
		})
	})

	return r
}

var aliceIdentity = &model.Identity{ID: "alice-id", Email: "alice@example.com"}

func TestTaskHandler_ListTasks(t *testing.T) {
	service := &mockTaskService{
		listFn: func(ctx context.Context, identity *model.Identity) ([]*model.Task, error) {
			return []*model.Task{
				{ID: "task-1", UserID: identity.ID, Title: "first"},
				{ID: "task-2", UserID: identity.ID, Title: "second"},
			}, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	req := httptest.NewRequest(http.MethodGet, "/api/alice-id/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp []taskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("len(resp) = %d, want 2", len(resp))
	}
}

// 空の一覧はnullではなく[]を返す
func TestTaskHandler_ListTasks_EmptyArray(t *testing.T) {
	service := &mockTaskService{
		listFn: func(ctx context.Context, identity *model.Identity) ([]*model.Task, error) {
			return nil, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	req := httptest.NewRequest(http.MethodGet, "/api/alice-id/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// パスのuserIDがトークンのユーザーと一致しない場合は403
func TestTaskHandler_PathUserMismatch(t *testing.T) {
	service := &mockTaskService{
		listFn: func(ctx context.Context, identity *model.Identity) ([]*model.Task, error) {
			t.Error("service must not be called on ownership mismatch")
			return nil, nil
		},
	}
	collector := &mockCollector{}
	router := newTaskTestRouter(service, collector, aliceIdentity)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/bob-id/tasks", ""},
		{http.MethodPost, "/api/bob-id/tasks", `{"title":"x"}`},
		{http.MethodGet, "/api/bob-id/tasks/task-1", ""},
		{http.MethodPut, "/api/bob-id/tasks/task-1", `{"title":"x"}`},
		{http.MethodDelete, "/api/bob-id/tasks/task-1", ""},
		{http.MethodPatch, "/api/bob-id/tasks/task-1/complete", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}
			var resp middleware.ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != "NOT_PERMITTED" {
				t.Errorf("Code = %q, want NOT_PERMITTED", resp.Code)
			}
		})
	}

	if collector.ownershipDenied != len(tests) {
		t.Errorf("ownershipDenied = %d, want %d", collector.ownershipDenied, len(tests))
	}
}

func TestTaskHandler_CreateTask(t *testing.T) {
	service := &mockTaskService{
		createFn: func(ctx context.Context, identity *model.Identity, input task.CreateInput) (*model.Task, error) {
			return &model.Task{
				ID:          "task-1",
				UserID:      identity.ID,
				Title:       input.Title,
				Description: input.Description,
			}, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	body := strings.NewReader(`{"title":"buy milk","description":"2 liters"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/alice-id/tasks", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var resp taskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "alice-id" {
		t.Errorf("UserID = %q, want alice-id", resp.UserID)
	}
	if resp.Title != "buy milk" {
		t.Errorf("Title = %q", resp.Title)
	}
}

// リクエストボディにuser_idを紛れ込ませても所有者はトークン由来のIDになる
func TestTaskHandler_CreateTask_IgnoresBodyOwner(t *testing.T) {
	service := &mockTaskService{
		createFn: func(ctx context.Context, identity *model.Identity, input task.CreateInput) (*model.Task, error) {
			return &model.Task{ID: "task-1", UserID: identity.ID, Title: input.Title}, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	body := strings.NewReader(`{"title":"hijack","user_id":"bob-id"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/alice-id/tasks", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp taskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "alice-id" {
		t.Errorf("UserID = %q, owner must come from the token", resp.UserID)
	}
}

func TestTaskHandler_GetTask_NotFound(t *testing.T) {
	service := &mockTaskService{
		getFn: func(ctx context.Context, identity *model.Identity, taskID string) (*model.Task, error) {
			return nil, model.NewTaskNotFoundError(taskID)
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	req := httptest.NewRequest(http.MethodGet, "/api/alice-id/tasks/no-such-task", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	service := &mockTaskService{
		updateFn: func(ctx context.Context, identity *model.Identity, taskID string, input task.UpdateInput) (*model.Task, error) {
			if input.Title == nil || *input.Title != "renamed" {
				t.Errorf("input.Title = %v", input.Title)
			}
			if input.Description != nil {
				t.Error("unspecified field must stay nil")
			}
			return &model.Task{ID: taskID, UserID: identity.ID, Title: *input.Title}, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	body := strings.NewReader(`{"title":"renamed"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/alice-id/tasks/task-1", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// PATCH /completeはボディのis_completedをそのままサービスに渡す。
// trueで完了、falseで未完了に戻せる。
func TestTaskHandler_CompleteTask(t *testing.T) {
	for _, want := range []bool{true, false} {
		service := &mockTaskService{
			setCompletionFn: func(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error) {
				if completed != want {
					t.Errorf("completed = %v, want %v", completed, want)
				}
				return &model.Task{ID: taskID, UserID: identity.ID, Title: "buy milk", IsCompleted: completed}, nil
			},
		}
		router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

		body := strings.NewReader(fmt.Sprintf(`{"is_completed":%v}`, want))
		req := httptest.NewRequest(http.MethodPatch, "/api/alice-id/tasks/task-1/complete", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp taskResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.IsCompleted != want {
			t.Errorf("IsCompleted = %v, want %v", resp.IsCompleted, want)
		}
	}
}

func TestTaskHandler_CompleteTask_InvalidBody(t *testing.T) {
	service := &mockTaskService{
		setCompletionFn: func(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error) {
			t.Error("service must not be called for an unparsable body")
			return nil, nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	req := httptest.NewRequest(http.MethodPatch, "/api/alice-id/tasks/task-1/complete", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	service := &mockTaskService{
		deleteFn: func(ctx context.Context, identity *model.Identity, taskID string) error {
			if taskID != "task-1" {
				t.Errorf("taskID = %q", taskID)
			}
			return nil
		},
	}
	router := newTaskTestRouter(service, &mockCollector{}, aliceIdentity)

	req := httptest.NewRequest(http.MethodDelete, "/api/alice-id/tasks/task-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestTaskHandler_NoIdentity(t *testing.T) {
	service := &mockTaskService{}
	router := newTaskTestRouter(service, &mockCollector{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/alice-id/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
