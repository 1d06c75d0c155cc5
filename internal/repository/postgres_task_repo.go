package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// 全クエリがuser_idでフィルタするユーザースコープのリポジトリガード。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, is_completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Description, task.IsCompleted, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByIDAndUser は指定IDかつ指定ユーザー所有のタスクを取得する。
// 存在しない場合も他ユーザー所有の場合もnilを返す。
func (r *PostgresTaskRepo) FindByIDAndUser(ctx context.Context, taskID, userID string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, is_completed, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	).Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.IsCompleted, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	return task, nil
}

// ListByUser はユーザーのタスク一覧を作成日時の昇順で返す。
// idx_tasks_user_created複合インデックスを使用する。
func (r *PostgresTaskRepo) ListByUser(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, is_completed, created_at, updated_at
		 FROM tasks WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.IsCompleted, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// Update はタスクの可変フィールドを更新する。
// id・user_idの両方でフィルタし、user_idは更新対象に含めない（所有者は不変）。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $3, description = $4, is_completed = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		task.ID, task.UserID, task.Title, task.Description, task.IsCompleted, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete は指定IDかつ指定ユーザー所有のタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, taskID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
