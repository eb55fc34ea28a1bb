// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, program, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeAlreadyJoined      = "ALREADY_JOINED"
	ErrCodeNotJoined          = "NOT_JOINED"
	ErrCodeProgramNotFound    = "PROGRAM_NOT_FOUND"
	ErrCodeActivityNotFound   = "ACTIVITY_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
)

// NewValidationError は入力値不正エラーを生成する。
// fieldMessageには画面に表示するフィールド単位のメッセージを渡す。
func NewValidationError(fieldMessage string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fieldMessage,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewAlreadyJoinedError は二重参加エラーを生成する。
func NewAlreadyJoinedError(programID int) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyJoined,
		Message:  fmt.Sprintf("このプログラムには既に参加しています: %d", programID),
		Category: "program",
		Action:   "参加一覧から該当プログラムを確認してください。",
	}
}

// NewNotJoinedError は未参加プログラムへの評価エラーを生成する。
func NewNotJoinedError(programID int) *APIError {
	return &APIError{
		Code:     ErrCodeNotJoined,
		Message:  fmt.Sprintf("参加していないプログラムは評価できません: %d", programID),
		Category: "program",
		Action:   "評価の前にプログラムに参加してください。",
	}
}

// NewProgramNotFoundError はプログラム未検出エラーを生成する。
func NewProgramNotFoundError(programID int) *APIError {
	return &APIError{
		Code:     ErrCodeProgramNotFound,
		Message:  fmt.Sprintf("指定されたプログラムが見つかりません: %d", programID),
		Category: "program",
		Action:   "プログラムIDを確認してください。",
	}
}

// NewActivityNotFoundError は参加記録未検出エラーを生成する。
func NewActivityNotFoundError(programID int) *APIError {
	return &APIError{
		Code:     ErrCodeActivityNotFound,
		Message:  fmt.Sprintf("このプログラムの参加記録が見つかりません: %d", programID),
		Category: "program",
		Action:   "参加一覧を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザーの存在有無を区別しない一律のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewWeakPasswordError はパスワード強度不足エラーを生成する。
func NewWeakPasswordError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  reason,
		Category: "validation",
		Action:   "8文字以上で英字と数字を含むパスワードを設定してください。",
	}
}

// NewRateLimitedError はログイン試行回数超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "ログイン試行回数が上限に達しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidRatingError は評価値不正エラーを生成する。
func NewInvalidRatingError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("評価値が不正です: %s", raw),
		Category: "validation",
		Action:   "評価は1〜5の数値で指定してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// ロールが確認できない場合もこのエラーを返す（フェイルクローズ）。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}
