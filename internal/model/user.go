// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す。
// オブジェクトの形から推測せず、閉じた列挙型として扱う。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// IsValid はRoleが定義済みの値かを検証する。
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User はサービス利用ユーザーのプロフィールを表す。
// IDは認証側のユーザーIDと同一で、登録時に作成される。
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Age       int
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin *time.Time
}

// Identity はユーザーの認証資格情報を表す。
// パスワードはbcryptハッシュのみを保持し、平文は保存しない。
type Identity struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// CSRFTokenはdouble-submit cookie方式の照合に使用する。
type Session struct {
	ID        string
	UserID    string
	CSRFToken string
	ExpiresAt time.Time
	CreatedAt time.Time
}
