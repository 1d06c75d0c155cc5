package model

import "time"

// Task はユーザーが所有するタスクを表す。
// UserIDは作成時に認証済みユーザーのIDで確定し、以降は不変。
// クライアントから送られた所有者ヒントがUserIDに書き込まれることはない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
