package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sportsreg/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用した参加記録リポジトリ。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// FindByUserAndProgram はユーザーIDとプログラムIDで参加記録を取得する。
// 見つからない場合はnilを返す。
func (r *PostgresActivityRepo) FindByUserAndProgram(ctx context.Context, userID string, programID int) (*model.Activity, error) {
	activity := &model.Activity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, program_id, program_name, joined_date, status, created_at
		 FROM activities WHERE user_id = $1 AND program_id = $2`,
		userID, programID,
	).Scan(
		&activity.ID, &activity.UserID, &activity.ProgramID,
		&activity.ProgramName, &activity.JoinedDate, &activity.Status,
		&activity.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("参加記録の取得に失敗しました: %w", err)
	}

	return activity, nil
}

// Create は参加記録を作成する。同一ユーザー・同一プログラムの記録が
// 既に存在する場合はErrDuplicateKeyを返す。
func (r *PostgresActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, program_id, program_name, joined_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		activity.ID, activity.UserID, activity.ProgramID,
		activity.ProgramName, activity.JoinedDate, activity.Status,
		activity.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("参加記録の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーの参加記録を参加日時の降順で取得する。
func (r *PostgresActivityRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, program_id, program_name, joined_date, status, created_at
		 FROM activities
		 WHERE user_id = $1
		 ORDER BY joined_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("参加記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var activities []*model.Activity
	for rows.Next() {
		activity := &model.Activity{}
		err := rows.Scan(
			&activity.ID, &activity.UserID, &activity.ProgramID,
			&activity.ProgramName, &activity.JoinedDate, &activity.Status,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// DeleteByUserAndProgram は参加記録を削除する。
// 記録が存在しない場合はfalseを返す。
func (r *PostgresActivityRepo) DeleteByUserAndProgram(ctx context.Context, userID string, programID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE user_id = $1 AND program_id = $2`,
		userID, programID,
	)
	if err != nil {
		return false, fmt.Errorf("参加記録の削除に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// DeleteByProgramID は指定プログラムの全参加記録を削除する。
func (r *PostgresActivityRepo) DeleteByProgramID(ctx context.Context, programID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE program_id = $1`,
		programID,
	)
	if err != nil {
		return fmt.Errorf("参加記録の削除に失敗しました: %w", err)
	}
	return nil
}

// CountByProgramID は指定プログラムの参加記録数を返す。
func (r *PostgresActivityRepo) CountByProgramID(ctx context.Context, programID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE program_id = $1`,
		programID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("参加記録数の取得に失敗しました: %w", err)
	}
	return count, nil
}
