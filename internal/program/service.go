// Package program はプログラムカタログの管理ロジックを提供する。
package program

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
	"github.com/hitoshi/sportsreg/internal/security"
)

// ID採番が競合した場合の再試行回数。
const maxCreateRetries = 3

// AddInput はプログラム追加の入力を表す。
// Name、Description、Locationは必須。それ以外は空ならデフォルト値を使う。
type AddInput struct {
	Name                string
	Category            string
	Price               string
	Description         string
	DetailedDescription string
	Schedule            string
	Location            string
	Difficulty          string
	MaxParticipants     int
}

// UpdateInput はプログラム更新の入力を表す。nilのフィールドは変更しない。
type UpdateInput struct {
	Name                *string
	Category            *string
	Price               *string
	Description         *string
	DetailedDescription *string
	Schedule            *string
	Location            *string
	Difficulty          *string
	MaxParticipants     *int
}

// Service はプログラムカタログのサービス層。
// 一覧・取得は全ユーザー向け、追加・更新・削除は管理者向けの操作。
type Service struct {
	programRepo  repository.ProgramRepository
	activityRepo repository.ActivityRepository
	ratingRepo   repository.RatingRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	programRepo repository.ProgramRepository,
	activityRepo repository.ActivityRepository,
	ratingRepo repository.RatingRepository,
) *Service {
	return &Service{
		programRepo:  programRepo,
		activityRepo: activityRepo,
		ratingRepo:   ratingRepo,
	}
}

// List は全プログラムをIDの昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Program, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}
	return programs, nil
}

// Get は指定IDのプログラムを返す。存在しない場合はPROGRAM_NOT_FOUNDエラー。
func (s *Service) Get(ctx context.Context, id int) (*model.Program, error) {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError(id)
	}
	return program, nil
}

// Add はプログラムを追加する。IDは現在の最大ID+1を割り当てる。
// 同時追加でIDが衝突した場合は採番し直して再試行する。
func (s *Service) Add(ctx context.Context, input AddInput) (*model.Program, error) {
	name := security.SanitizeInput(input.Name)
	description := security.SanitizeInput(input.Description)
	location := security.SanitizeInput(input.Location)

	if name == "" {
		return nil, model.NewValidationError("プログラム名を入力してください")
	}
	if description == "" {
		return nil, model.NewValidationError("プログラムの説明を入力してください")
	}
	if location == "" {
		return nil, model.NewValidationError("開催場所を入力してください")
	}

	program := &model.Program{
		Name:                name,
		Category:            defaultString(security.SanitizeInput(input.Category), model.DefaultCategory),
		Price:               defaultString(security.SanitizeInput(input.Price), model.DefaultPrice),
		Description:         description,
		DetailedDescription: security.SanitizeInput(input.DetailedDescription),
		Schedule:            security.SanitizeInput(input.Schedule),
		Location:            location,
		Difficulty:          defaultString(security.SanitizeInput(input.Difficulty), model.DefaultDifficulty),
		MaxParticipants:     input.MaxParticipants,
		Participants:        0,
	}
	if program.MaxParticipants <= 0 {
		program.MaxParticipants = model.DefaultMaxParticipants
	}

	var lastErr error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		maxID, err := s.programRepo.MaxID(ctx)
		if err != nil {
			return nil, fmt.Errorf("プログラムIDの採番に失敗しました: %w", err)
		}

		now := time.Now()
		program.ID = maxID + 1
		program.CreatedAt = now
		program.UpdatedAt = now

		err = s.programRepo.Create(ctx, program)
		if err == nil {
			slog.Info("program added",
				slog.Int("program_id", program.ID),
				slog.String("name", program.Name),
			)
			return program, nil
		}
		if err != repository.ErrDuplicateKey {
			return nil, fmt.Errorf("プログラムの作成に失敗しました: %w", err)
		}

		// 同時追加でIDが先に使われた。採番し直す
		lastErr = err
	}

	return nil, fmt.Errorf("プログラムIDの採番が%d回競合しました: %w", maxCreateRetries, lastErr)
}

// Update はプログラムの指定フィールドのみを更新する。
func (s *Service) Update(ctx context.Context, id int, input UpdateInput) (*model.Program, error) {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError(id)
	}

	applyString := func(dst *string, src *string, required bool, field string) error {
		if src == nil {
			return nil
		}
		sanitized := security.SanitizeInput(*src)
		if required && sanitized == "" {
			return model.NewValidationError(field + "を入力してください")
		}
		*dst = sanitized
		return nil
	}

	if err := applyString(&program.Name, input.Name, true, "プログラム名"); err != nil {
		return nil, err
	}
	if err := applyString(&program.Category, input.Category, false, ""); err != nil {
		return nil, err
	}
	if err := applyString(&program.Price, input.Price, false, ""); err != nil {
		return nil, err
	}
	if err := applyString(&program.Description, input.Description, true, "プログラムの説明"); err != nil {
		return nil, err
	}
	if err := applyString(&program.DetailedDescription, input.DetailedDescription, false, ""); err != nil {
		return nil, err
	}
	if err := applyString(&program.Schedule, input.Schedule, false, ""); err != nil {
		return nil, err
	}
	if err := applyString(&program.Location, input.Location, true, "開催場所"); err != nil {
		return nil, err
	}
	if err := applyString(&program.Difficulty, input.Difficulty, false, ""); err != nil {
		return nil, err
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, model.NewValidationError("定員は1以上で入力してください")
		}
		program.MaxParticipants = *input.MaxParticipants
	}

	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, fmt.Errorf("プログラムの更新に失敗しました: %w", err)
	}

	slog.Info("program updated", slog.Int("program_id", id))

	return program, nil
}

// Delete はプログラムを削除し、関連する参加記録と評価も取り除いたうえで
// 残りのプログラムIDを1からの連番に詰め直す。
// 参加記録・評価の削除は本体削除後のベストエフォートで、失敗時はログに残す。
func (s *Service) Delete(ctx context.Context, id int) error {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return model.NewProgramNotFoundError(id)
	}

	if err := s.programRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("プログラムの削除に失敗しました: %w", err)
	}

	if err := s.activityRepo.DeleteByProgramID(ctx, id); err != nil {
		slog.Warn("failed to delete activities for program",
			slog.Int("program_id", id),
			slog.String("error", err.Error()),
		)
	}
	if err := s.ratingRepo.DeleteByProgramID(ctx, id); err != nil {
		slog.Warn("failed to delete ratings for program",
			slog.Int("program_id", id),
			slog.String("error", err.Error()),
		)
	}

	if _, err := s.Renumber(ctx); err != nil {
		return fmt.Errorf("プログラムIDの詰め直しに失敗しました: %w", err)
	}

	slog.Info("program deleted",
		slog.Int("program_id", id),
		slog.String("name", program.Name),
	)

	return nil
}

// Renumber は全プログラムのIDを1からの連番に詰め直す。
// 既に連番の場合は何もしない冪等な操作で、途中で失敗しても再実行すれば収束する。
// 各ステップはIDの小さい順に下方向へ詰めるため、付け替え先が既存IDと衝突することはない。
func (s *Service) Renumber(ctx context.Context) (int, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}

	renumbered := 0
	for i, p := range programs {
		want := i + 1
		if p.ID == want {
			continue
		}
		if err := s.programRepo.ReassignID(ctx, p.ID, want); err != nil {
			return renumbered, fmt.Errorf("プログラムID %d から %d への付け替えに失敗しました: %w", p.ID, want, err)
		}
		renumbered++
	}

	if renumbered > 0 {
		slog.Info("programs renumbered", slog.Int("count", renumbered))
	}

	return renumbered, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
