package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/sportsreg/internal/model"
)

// PostgresRegistrationRepo はPostgreSQLを使用した登録申込リポジトリ。
type PostgresRegistrationRepo struct {
	db *sql.DB
}

// NewPostgresRegistrationRepo はPostgresRegistrationRepoを生成する。
func NewPostgresRegistrationRepo(db *sql.DB) *PostgresRegistrationRepo {
	return &PostgresRegistrationRepo{db: db}
}

// Create は登録申込を追記する。
func (r *PostgresRegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations
		 (id, user_id, first_name, last_name, email, phone, age,
		  interested_programs, emergency_contact, emergency_phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reg.ID, reg.UserID, reg.FirstName, reg.LastName,
		reg.Email, reg.Phone, reg.Age,
		pq.Array(reg.InterestedPrograms), reg.EmergencyContact, reg.EmergencyPhone,
		reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("登録申込の保存に失敗しました: %w", err)
	}
	return nil
}

// FindLatestByUserID は指定ユーザーの最新の登録申込を取得する。
// 見つからない場合はnilを返す。
func (r *PostgresRegistrationRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Registration, error) {
	reg := &model.Registration{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, email, phone, age,
		        interested_programs, emergency_contact, emergency_phone, created_at, updated_at
		 FROM registrations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(
		&reg.ID, &reg.UserID, &reg.FirstName, &reg.LastName,
		&reg.Email, &reg.Phone, &reg.Age,
		pq.Array(&reg.InterestedPrograms), &reg.EmergencyContact, &reg.EmergencyPhone,
		&reg.CreatedAt, &reg.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("登録申込の取得に失敗しました: %w", err)
	}

	return reg, nil
}
