package auth

import (
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrOwnershipMismatch は認証済みユーザーとリソース所有者が一致しない場合に返される
var ErrOwnershipMismatch = errors.New("authenticated user does not own the resource")

// Authorize は認証済みユーザーがownerIDのリソースを操作できるか検証する。
// 管理者などの横断ロールは存在せず、一致しない場合は常に拒否する。
func Authorize(identity *model.Identity, ownerID string) error {
	if identity == nil || identity.ID == "" {
		return ErrOwnershipMismatch
	}
	if identity.ID != ownerID {
		return ErrOwnershipMismatch
	}
	return nil
}
