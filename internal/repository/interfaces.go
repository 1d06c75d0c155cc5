// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail は正規化済みメールアドレスが既に登録されていることを表す。
var ErrDuplicateEmail = errors.New("email already registered")

// ErrNotFound は対象行が存在しない、または認証済みユーザーの所有ではないことを表す。
// 2つのケースを呼び出し側から区別できないようにすることで、
// リソースの存在有無を非所有者に漏らさない。
var ErrNotFound = errors.New("not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
//
// すべての読み取り・更新・削除はタスクIDと認証済みユーザーIDの両方で
// フィルタする。ハンドラー層の所有権チェックが迂回されても、
// この層だけで他ユーザーのタスクへのアクセスを防ぐ（二重の防御）。
type TaskRepository interface {
	// Create はタスクを作成する。user_idは呼び出し側（サービス層）が
	// 認証済みユーザーのIDで確定済みであること。
	Create(ctx context.Context, task *model.Task) error

	// FindByIDAndUser は指定IDかつ指定ユーザー所有のタスクを取得する。
	// 存在しない場合も他ユーザー所有の場合もnilを返す。
	FindByIDAndUser(ctx context.Context, taskID, userID string) (*model.Task, error)

	// ListByUser はユーザーのタスク一覧を作成日時の昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Task, error)

	// Update はタスクのtitle、description、is_completed、updated_atを更新する。
	// task.IDとtask.UserIDの両方でフィルタし、該当行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定IDかつ指定ユーザー所有のタスクを削除する。
	// 該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, taskID, userID string) error
}
