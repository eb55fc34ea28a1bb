package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sportsreg/internal/model"
)

// PostgresRatingRepo はPostgreSQLを使用した評価リポジトリ。
type PostgresRatingRepo struct {
	db *sql.DB
}

// NewPostgresRatingRepo はPostgresRatingRepoを生成する。
func NewPostgresRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

// FindByUserAndProgram はユーザーIDとプログラムIDで評価を取得する。
// 見つからない場合はnilを返す。
func (r *PostgresRatingRepo) FindByUserAndProgram(ctx context.Context, userID string, programID int) (*model.Rating, error) {
	rating := &model.Rating{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, program_id, value, created_at, updated_at
		 FROM ratings WHERE user_id = $1 AND program_id = $2`,
		userID, programID,
	).Scan(
		&rating.ID, &rating.UserID, &rating.ProgramID,
		&rating.Value, &rating.CreatedAt, &rating.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("評価の取得に失敗しました: %w", err)
	}

	return rating, nil
}

// Upsert は評価を冪等にUPSERTする。新規作成ならtrueを返す。
// UNIQUE(user_id, program_id)制約を利用したINSERT ON CONFLICTで実装し、
// チェック後の書き込み競合でも重複行を作らない。
func (r *PostgresRatingRepo) Upsert(ctx context.Context, rating *model.Rating) (bool, error) {
	now := time.Now().UTC()
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}

	// xmax = 0 はINSERTされた行でのみ真となる
	var created bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ratings (id, user_id, program_id, value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (user_id, program_id)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, (xmax = 0)`,
		rating.ID, rating.UserID, rating.ProgramID, rating.Value, now,
	).Scan(&rating.ID, &rating.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("評価の保存に失敗しました: %w", err)
	}

	rating.UpdatedAt = now
	return created, nil
}

// ListValuesByProgramID は指定プログラムの全評価値を取得する。
func (r *PostgresRatingRepo) ListValuesByProgramID(ctx context.Context, programID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT value FROM ratings WHERE program_id = $1`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("評価一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan rating value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return values, nil
}

// DeleteByProgramID は指定プログラムの全評価を削除する。
func (r *PostgresRatingRepo) DeleteByProgramID(ctx context.Context, programID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ratings WHERE program_id = $1`,
		programID,
	)
	if err != nil {
		return fmt.Errorf("評価の削除に失敗しました: %w", err)
	}
	return nil
}
