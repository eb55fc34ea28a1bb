// Package rating はプログラム評価のドメインロジックを提供する。
package rating

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
)

// 評価値の範囲。範囲外の数値はエラーにせず、最も近い端へ丸める。
const (
	minRating = 1
	maxRating = 5
)

// Result は評価登録の結果を表す。
type Result struct {
	Rating  *model.Rating
	Updated bool // 既存評価の上書きならtrue
}

// Service はプログラム評価のサービス層。
type Service struct {
	ratingRepo   repository.RatingRepository
	activityRepo repository.ActivityRepository
	programRepo  repository.ProgramRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	ratingRepo repository.RatingRepository,
	activityRepo repository.ActivityRepository,
	programRepo repository.ProgramRepository,
) *Service {
	return &Service{
		ratingRepo:   ratingRepo,
		activityRepo: activityRepo,
		programRepo:  programRepo,
	}
}

// ParseValue は評価の生入力を1〜5の整数に正規化する。
// 小数は四捨五入し、範囲外は最も近い端へ丸める（7は5、-2は1）。
// 数値として解釈できない入力はINVALID_RATINGエラーになる。
func ParseValue(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, model.NewInvalidRatingError(raw)
	}

	// int変換はオーバーフローし得るため、丸め込みはfloat64のまま行う
	if f < minRating {
		f = minRating
	}
	if f > maxRating {
		f = maxRating
	}
	return int(math.Round(f)), nil
}

// AddOrUpdate はユーザーの評価を登録または上書きする。
// 評価には事前の参加記録が必要で、未参加の場合はNOT_JOINEDエラーになる。
// 同一ユーザー・同一プログラムの評価は常に1件で、再評価は上書きとなる。
func (s *Service) AddOrUpdate(ctx context.Context, userID string, programID int, raw string) (*Result, error) {
	value, err := ParseValue(raw)
	if err != nil {
		return nil, err
	}

	program, err := s.programRepo.FindByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError(programID)
	}

	activity, err := s.activityRepo.FindByUserAndProgram(ctx, userID, programID)
	if err != nil {
		return nil, fmt.Errorf("参加記録の確認に失敗しました: %w", err)
	}
	if activity == nil {
		return nil, model.NewNotJoinedError(programID)
	}

	rating := &model.Rating{
		UserID:    userID,
		ProgramID: programID,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	created, err := s.ratingRepo.Upsert(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("評価の保存に失敗しました: %w", err)
	}

	slog.Info("rating saved",
		slog.String("user_id", userID),
		slog.Int("program_id", programID),
		slog.Int("value", value),
		slog.Bool("updated", !created),
	)

	return &Result{Rating: rating, Updated: !created}, nil
}

// GetUserRating はユーザーの評価を返す。未評価の場合はnilを返す。
func (s *Service) GetUserRating(ctx context.Context, userID string, programID int) (*model.Rating, error) {
	rating, err := s.ratingRepo.FindByUserAndProgram(ctx, userID, programID)
	if err != nil {
		return nil, fmt.Errorf("評価の取得に失敗しました: %w", err)
	}
	return rating, nil
}

// GetSummary はプログラムの平均評価と件数を返す。
// 平均は小数第1位まで（四捨五入）。評価が無い場合はともに0。
func (s *Service) GetSummary(ctx context.Context, programID int) (*model.RatingSummary, error) {
	values, err := s.ratingRepo.ListValuesByProgramID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("評価一覧の取得に失敗しました: %w", err)
	}

	if len(values) == 0 {
		return &model.RatingSummary{Average: 0, Count: 0}, nil
	}

	sum := 0
	for _, v := range values {
		sum += v
	}

	average := math.Round(float64(sum)/float64(len(values))*10) / 10

	return &model.RatingSummary{Average: average, Count: len(values)}, nil
}
