// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/sportsreg/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。照合は小文字で行う。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithIdentity はユーザーと認証情報を同一トランザクションで作成する。
	// メールアドレスが既に使用されている場合はErrDuplicateKeyを返す。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile はユーザーのプロフィール項目を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdateRole はユーザーのロールを更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string) error

	// List は全ユーザーを作成日時の昇順で取得する。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、registrations、activities、ratingsは
	// CASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は認証資格情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByEmail はメールアドレスで認証情報を検索する。照合は小文字で行う。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// RegistrationRepository は登録申込履歴の永続化インターフェース。
type RegistrationRepository interface {
	// Create は登録申込を追記する。
	Create(ctx context.Context, reg *model.Registration) error

	// FindLatestByUserID は指定ユーザーの最新の登録申込を取得する。
	// 見つからない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Registration, error)
}

// ProgramRepository はプログラムカタログの永続化インターフェース。
type ProgramRepository interface {
	// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.Program, error)

	// List は全プログラムをIDの昇順で取得する。
	List(ctx context.Context) ([]*model.Program, error)

	// MaxID は現在の最大プログラムIDを返す。プログラムが無い場合は0を返す。
	MaxID(ctx context.Context) (int, error)

	// Create はプログラムを作成する。IDが既に存在する場合はErrDuplicateKeyを返す。
	Create(ctx context.Context, program *model.Program) error

	// Update はプログラム情報を更新する。
	Update(ctx context.Context, program *model.Program) error

	// UpdateParticipants は参加者数の表示値を更新する。
	UpdateParticipants(ctx context.Context, id, participants int) error

	// DeleteByID は指定IDのプログラムを削除する。
	DeleteByID(ctx context.Context, id int) error

	// ReassignID はプログラムIDを付け替え、参加記録と評価のprogram_idも
	// 同一トランザクションで追従させる。欠番詰めの1ステップとして使う。
	ReassignID(ctx context.Context, oldID, newID int) error
}

// ActivityRepository は参加記録の永続化インターフェース。
type ActivityRepository interface {
	// FindByUserAndProgram はユーザーIDとプログラムIDで参加記録を取得する。
	// 見つからない場合はnilを返す。
	FindByUserAndProgram(ctx context.Context, userID string, programID int) (*model.Activity, error)

	// Create は参加記録を作成する。同一ユーザー・同一プログラムの記録が
	// 既に存在する場合はErrDuplicateKeyを返す。
	Create(ctx context.Context, activity *model.Activity) error

	// ListByUserID は指定ユーザーの参加記録を参加日時の降順で取得する。
	ListByUserID(ctx context.Context, userID string) ([]*model.Activity, error)

	// DeleteByUserAndProgram は参加記録を削除する。
	// 記録が存在しない場合はfalseを返す。
	DeleteByUserAndProgram(ctx context.Context, userID string, programID int) (bool, error)

	// DeleteByProgramID は指定プログラムの全参加記録を削除する。
	DeleteByProgramID(ctx context.Context, programID int) error

	// CountByProgramID は指定プログラムの参加記録数を返す。
	CountByProgramID(ctx context.Context, programID int) (int, error)
}

// RatingRepository は評価の永続化インターフェース。
type RatingRepository interface {
	// FindByUserAndProgram はユーザーIDとプログラムIDで評価を取得する。
	// 見つからない場合はnilを返す。
	FindByUserAndProgram(ctx context.Context, userID string, programID int) (*model.Rating, error)

	// Upsert は評価を冪等にUPSERTする。新規作成ならtrueを返す。
	// UNIQUE(user_id, program_id)制約を利用したINSERT ON CONFLICTで実装する。
	Upsert(ctx context.Context, rating *model.Rating) (created bool, err error)

	// ListValuesByProgramID は指定プログラムの全評価値を取得する。
	ListValuesByProgramID(ctx context.Context, programID int) ([]int, error)

	// DeleteByProgramID は指定プログラムの全評価を削除する。
	DeleteByProgramID(ctx context.Context, programID int) error
}
