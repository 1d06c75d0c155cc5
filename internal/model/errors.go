// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthRequired       = "AUTHENTICATION_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeNotPermitted       = "NOT_PERMITTED"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeInvalidTitle       = "INVALID_TITLE"
	ErrCodeInvalidDescription = "INVALID_DESCRIPTION"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewAuthRequiredError は認証エラーを生成する。
// トークンの欠落・不正・署名エラー・期限切れのいずれであっても
// クライアントには同一のメッセージを返す（失敗理由を外部に漏らさない）。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthRequired,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "サインインして有効なトークンを提示してください。",
	}
}

// NewInvalidCredentialsError はサインイン失敗エラーを生成する。
// メールアドレス未登録かパスワード不一致かを区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、サインインしてください。",
	}
}

// NewWeakPasswordError はパスワードポリシー違反エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードは%d文字以上100文字以下で指定してください。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewNotPermittedError は所有権不一致エラーを生成する。
// 認証には成功したが対象リソースへの権限がない場合に使用する（403）。
func NewNotPermittedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotPermitted,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分のリソースに対してのみ操作できます。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザー所有のタスクへのアクセスも同じエラーになる
// （リソースの存在有無を非所有者に漏らさない）。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewInvalidTitleError は無効なタイトルエラーを生成する。
func NewInvalidTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  "タイトルは1文字以上200文字以下で指定してください。",
		Category: "validation",
		Action:   "タイトルを修正して再度お試しください。",
	}
}

// NewInvalidDescriptionError は無効な説明エラーを生成する。
func NewInvalidDescriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDescription,
		Message:  "説明は2000文字以下で指定してください。",
		Category: "validation",
		Action:   "説明を短くして再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "サインインし直してください。",
	}
}
