package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sportsreg/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用した認証情報リポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// FindByEmail はメールアドレスで認証情報を検索する。照合は小文字で行う。
// 見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, created_at
		 FROM identities WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&identity.UserID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("認証情報の検索に失敗しました: %w", err)
	}

	return identity, nil
}
