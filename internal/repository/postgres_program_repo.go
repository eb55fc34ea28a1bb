package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
)

// PostgresProgramRepo はPostgreSQLを使用したプログラムリポジトリ。
type PostgresProgramRepo struct {
	db *sql.DB
}

// NewPostgresProgramRepo はPostgresProgramRepoを生成する。
func NewPostgresProgramRepo(db *sql.DB) *PostgresProgramRepo {
	return &PostgresProgramRepo{db: db}
}

const programColumns = `id, name, category, price, description, detailed_description,
	schedule, location, difficulty, max_participants, participants, created_at, updated_at`

func scanProgram(scan func(...any) error) (*model.Program, error) {
	p := &model.Program{}
	err := scan(
		&p.ID, &p.Name, &p.Category, &p.Price,
		&p.Description, &p.DetailedDescription,
		&p.Schedule, &p.Location, &p.Difficulty,
		&p.MaxParticipants, &p.Participants,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
func (r *PostgresProgramRepo) FindByID(ctx context.Context, id int) (*model.Program, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`,
		id,
	)
	program, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	return program, nil
}

// List は全プログラムをIDの昇順で取得する。
func (r *PostgresProgramRepo) List(ctx context.Context) ([]*model.Program, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM programs ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var programs []*model.Program
	for rows.Next() {
		program, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate programs: %w", err)
	}

	return programs, nil
}

// MaxID は現在の最大プログラムIDを返す。プログラムが無い場合は0を返す。
func (r *PostgresProgramRepo) MaxID(ctx context.Context) (int, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM programs`,
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("最大プログラムIDの取得に失敗しました: %w", err)
	}
	return maxID, nil
}

// Create はプログラムを作成する。IDが既に存在する場合はErrDuplicateKeyを返す。
func (r *PostgresProgramRepo) Create(ctx context.Context, program *model.Program) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO programs
		 (id, name, category, price, description, detailed_description,
		  schedule, location, difficulty, max_participants, participants, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		program.ID, program.Name, program.Category, program.Price,
		program.Description, program.DetailedDescription,
		program.Schedule, program.Location, program.Difficulty,
		program.MaxParticipants, program.Participants,
		program.CreatedAt, program.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("プログラムの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプログラム情報を更新する。
func (r *PostgresProgramRepo) Update(ctx context.Context, program *model.Program) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE programs
		 SET name = $2, category = $3, price = $4,
		     description = $5, detailed_description = $6,
		     schedule = $7, location = $8, difficulty = $9,
		     max_participants = $10, participants = $11, updated_at = $12
		 WHERE id = $1`,
		program.ID, program.Name, program.Category, program.Price,
		program.Description, program.DetailedDescription,
		program.Schedule, program.Location, program.Difficulty,
		program.MaxParticipants, program.Participants, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("プログラムの更新に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("プログラムが見つかりません: %d", program.ID)
	}

	return nil
}

// UpdateParticipants は参加者数の表示値を更新する。
func (r *PostgresProgramRepo) UpdateParticipants(ctx context.Context, id, participants int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE programs SET participants = $2, updated_at = NOW() WHERE id = $1`,
		id, participants,
	)
	if err != nil {
		return fmt.Errorf("参加者数の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのプログラムを削除する。
func (r *PostgresProgramRepo) DeleteByID(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM programs WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("プログラムの削除に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("プログラムが見つかりません: %d", id)
	}

	return nil
}

// ReassignID はプログラムIDを付け替え、参加記録と評価のprogram_idも
// 同一トランザクションで追従させる。欠番詰めの1ステップとして使う。
// oldIDのプログラムが存在しない場合は何もせず正常終了する。
func (r *PostgresProgramRepo) ReassignID(ctx context.Context, oldID, newID int) error {
	if oldID == newID {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE programs SET id = $2, updated_at = NOW() WHERE id = $1`,
		oldID, newID,
	)
	if err != nil {
		return fmt.Errorf("プログラムIDの付け替えに失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// 既に付け替え済み。再実行時はここで打ち切る
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE activities SET program_id = $2 WHERE program_id = $1`,
		oldID, newID,
	)
	if err != nil {
		return fmt.Errorf("参加記録のプログラムID更新に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ratings SET program_id = $2 WHERE program_id = $1`,
		oldID, newID,
	)
	if err != nil {
		return fmt.Errorf("評価のプログラムID更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
