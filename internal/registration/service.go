// Package registration はプログラムへの参加登録のドメインロジックを提供する。
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
)

// Notifier は参加確認通知の送信キューへの投入インターフェース。
// 投入は非ブロッキングで、送信の成否は参加登録の成否に影響しない。
type Notifier interface {
	EnqueueJoinConfirmation(user *model.User, program *model.Program)
}

// Service は参加登録のサービス層。
// 参加、参加取消、参加履歴一覧のビジネスロジックを提供する。
type Service struct {
	activityRepo repository.ActivityRepository
	programRepo  repository.ProgramRepository
	regRepo      repository.RegistrationRepository
	notifier     Notifier
}

// NewService はServiceの新しいインスタンスを生成する。
// notifierはnilでもよく、その場合は通知を送らない。
func NewService(
	activityRepo repository.ActivityRepository,
	programRepo repository.ProgramRepository,
	regRepo repository.RegistrationRepository,
	notifier Notifier,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		programRepo:  programRepo,
		regRepo:      regRepo,
		notifier:     notifier,
	}
}

// JoinProgram はユーザーをプログラムに参加させる。
// 同一プログラムへの重複参加はALREADY_JOINEDエラーになる。
// チェック後の書き込みで競合しても、一意制約により重複記録は作られない。
// 成功時は参加確認メールを通知キューへ投入する（fire-and-forget）。
func (s *Service) JoinProgram(ctx context.Context, user *model.User, programID int) (*model.Activity, error) {
	program, err := s.programRepo.FindByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError(programID)
	}

	existing, err := s.activityRepo.FindByUserAndProgram(ctx, user.ID, programID)
	if err != nil {
		return nil, fmt.Errorf("参加記録の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyJoinedError(programID)
	}

	now := time.Now()
	activity := &model.Activity{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		ProgramID:   programID,
		ProgramName: program.Name,
		JoinedDate:  now,
		Status:      model.ActivityStatusUpcoming,
		CreatedAt:   now,
	}

	err = s.activityRepo.Create(ctx, activity)
	if err == repository.ErrDuplicateKey {
		// チェックとINSERTの間に別リクエストが参加を完了させた
		return nil, model.NewAlreadyJoinedError(programID)
	}
	if err != nil {
		return nil, fmt.Errorf("参加記録の作成に失敗しました: %w", err)
	}

	s.refreshParticipants(ctx, programID)

	if s.notifier != nil {
		s.notifier.EnqueueJoinConfirmation(user, program)
	}

	slog.Info("user joined program",
		slog.String("user_id", user.ID),
		slog.Int("program_id", programID),
		slog.String("program_name", program.Name),
	)

	return activity, nil
}

// LeaveProgram はユーザーの参加記録を削除する。
// 参加していないプログラムの取消はNOT_JOINEDエラーになる。
func (s *Service) LeaveProgram(ctx context.Context, userID string, programID int) error {
	deleted, err := s.activityRepo.DeleteByUserAndProgram(ctx, userID, programID)
	if err != nil {
		return fmt.Errorf("参加記録の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotJoinedError(programID)
	}

	s.refreshParticipants(ctx, programID)

	slog.Info("user left program",
		slog.String("user_id", userID),
		slog.Int("program_id", programID),
	)

	return nil
}

// ListActivities はユーザーの参加記録を参加日時の降順で返す。
func (s *Service) ListActivities(ctx context.Context, userID string) ([]*model.Activity, error) {
	activities, err := s.activityRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("参加履歴の取得に失敗しました: %w", err)
	}
	return activities, nil
}

// GetLatestRegistration はユーザーの最新の登録申込を返す。無い場合はnilを返す。
func (s *Service) GetLatestRegistration(ctx context.Context, userID string) (*model.Registration, error) {
	reg, err := s.regRepo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("登録申込の取得に失敗しました: %w", err)
	}
	return reg, nil
}

// refreshParticipants は参加記録数を数え直して表示値を更新する。
// 表示用の値のため、失敗しても参加操作自体は成立させる。
func (s *Service) refreshParticipants(ctx context.Context, programID int) {
	count, err := s.activityRepo.CountByProgramID(ctx, programID)
	if err != nil {
		slog.Warn("failed to count participants",
			slog.Int("program_id", programID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.programRepo.UpdateParticipants(ctx, programID, count); err != nil {
		slog.Warn("failed to update participants",
			slog.Int("program_id", programID),
			slog.String("error", err.Error()),
		)
	}
}
