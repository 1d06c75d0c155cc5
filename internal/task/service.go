// Package task はタスクのCRUDユースケースを実装する。
// すべての操作は認証済みユーザーのIDでスコープされ、
// 他ユーザーのタスクは存在しないものとして扱われる。
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// Service はタスク関連のユースケースを実装する
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer *security.TextSanitizer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを作成する
func NewService(taskRepo repository.TaskRepository, sanitizer *security.TextSanitizer, logger *slog.Logger) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateInput はタスク作成の入力。所有者はリクエストからは受け取らず、
// 常に認証済みユーザーのIDを使う。
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateInput はタスク更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

// List は認証済みユーザーのタスクを作成日時の昇順で返す
func (s *Service) List(ctx context.Context, identity *model.Identity) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗: %w", err)
	}
	return tasks, nil
}

// Create は新しいタスクを作成する。所有者は常にidentityのユーザーになる。
func (s *Service) Create(ctx context.Context, identity *model.Identity, input CreateInput) (*model.Task, error) {
	title := s.sanitizer.Sanitize(input.Title)
	description := s.sanitizer.Sanitize(input.Description)

	// 文字数制限はバイト数ではなくルーン数で判定する
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, model.NewInvalidTitleError()
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, model.NewInvalidDescriptionError()
	}

	now := s.now().UTC()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      identity.ID,
		Title:       title,
		Description: description,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗: %w", err)
	}

	s.logger.Info("task created", "task_id", task.ID, "user_id", identity.ID)

	return task, nil
}

// Get はタスクを1件取得する。他ユーザーのタスクは不在として扱う。
func (s *Service) Get(ctx context.Context, identity *model.Identity, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByIDAndUser(ctx, taskID, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// Update はタスクを部分更新する。指定されなかったフィールドは維持する。
func (s *Service) Update(ctx context.Context, identity *model.Identity, taskID string, input UpdateInput) (*model.Task, error) {
	task, err := s.Get(ctx, identity, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := s.sanitizer.Sanitize(*input.Title)
		if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
			return nil, model.NewInvalidTitleError()
		}
		task.Title = title
	}
	if input.Description != nil {
		description := s.sanitizer.Sanitize(*input.Description)
		if utf8.RuneCountInString(description) > maxDescriptionLength {
			return nil, model.NewInvalidDescriptionError()
		}
		task.Description = description
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewTaskNotFoundError(taskID)
		}
		return nil, fmt.Errorf("タスクの更新に失敗: %w", err)
	}

	s.logger.Info("task updated", "task_id", task.ID, "user_id", identity.ID)

	return task, nil
}

// SetCompletion は完了状態のみを変更する
func (s *Service) SetCompletion(ctx context.Context, identity *model.Identity, taskID string, completed bool) (*model.Task, error) {
	return s.Update(ctx, identity, taskID, UpdateInput{IsCompleted: &completed})
}

// Delete はタスクを削除する。他ユーザーのタスクは不在として扱う。
func (s *Service) Delete(ctx context.Context, identity *model.Identity, taskID string) error {
	if err := s.taskRepo.Delete(ctx, taskID, identity.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewTaskNotFoundError(taskID)
		}
		return fmt.Errorf("タスクの削除に失敗: %w", err)
	}

	s.logger.Info("task deleted", "task_id", taskID, "user_id", identity.ID)

	return nil
}
