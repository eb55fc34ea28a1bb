// Package user はユーザー管理のドメインロジックを提供する。
// 管理者によるユーザー一覧・ロール変更・削除と、本人のプロフィール更新を含む。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
	"github.com/hitoshi/sportsreg/internal/security"
)

// ProfileInput はプロフィール更新の入力を表す。
type ProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
	Age       string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	activityRepo repository.ActivityRepository
	programRepo  repository.ProgramRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityRepository,
	programRepo repository.ProgramRepository,
) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		programRepo:  programRepo,
	}
}

// List は全ユーザーを作成日時の昇順で返す。管理者向け。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。存在しない場合はUSER_NOT_FOUNDエラー。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile は本人のプロフィール項目を検証して更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	firstName := security.SanitizeInput(input.FirstName)
	lastName := security.SanitizeInput(input.LastName)

	if msg := security.ValidateName(firstName); msg != "" {
		return nil, model.NewValidationError(msg)
	}
	if msg := security.ValidateName(lastName); msg != "" {
		return nil, model.NewValidationError(msg)
	}

	phone, ok := security.SanitizePhone(input.Phone)
	if !ok {
		return nil, model.NewValidationError("有効な電話番号を入力してください（04から始まる10桁）")
	}

	ageValue, ok := security.SanitizeNumber(input.Age, 16, 99)
	if !ok {
		return nil, model.NewValidationError("年齢は16歳から99歳の範囲で入力してください")
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Phone = phone
	user.Age = int(ageValue)

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", userID))

	return user, nil
}

// UpdateRole はユーザーのロールを変更する。管理者向け。
// 不正なロール値はVALIDATION_ERRORになる。
func (s *Service) UpdateRole(ctx context.Context, userID string, role model.Role) (*model.User, error) {
	if !role.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("不正なロールです: %s", role))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}

	user.Role = role

	slog.Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return user, nil
}

// Delete はユーザーを削除する。管理者向け。
// 削除順序: sessions → user（+ CASCADE: identities, registrations, activities, ratings）
// プログラムカタログは共有データとして残す。
func (s *Service) Delete(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザー削除を開始します", slog.String("user_id", userID))

	// CASCADE削除で消える参加記録のプログラムIDを先に控えておく
	joinedProgramIDs := s.listJoinedProgramIDs(ctx, userID)

	// 1. セッションを削除し、以後のリクエストを即座に無効化する
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除（関連レコードはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	// 3. 参加していたプログラムの参加者数の表示値を数え直す
	s.refreshParticipants(ctx, joinedProgramIDs)

	slog.Info("ユーザー削除が完了しました", slog.String("user_id", userID))

	return nil
}

// listJoinedProgramIDs は削除対象ユーザーの参加プログラムIDを返す。
// 表示値の更新のための参照であり、失敗しても削除処理は続行する。
func (s *Service) listJoinedProgramIDs(ctx context.Context, userID string) []int {
	if s.activityRepo == nil {
		return nil
	}
	activities, err := s.activityRepo.ListByUserID(ctx, userID)
	if err != nil {
		slog.Warn("failed to list activities before user deletion",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	ids := make([]int, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ProgramID)
	}
	return ids
}

// refreshParticipants は参加記録数を数え直して表示値を更新する。
// 表示用の値のため、失敗してもユーザー削除自体は成立させる。
func (s *Service) refreshParticipants(ctx context.Context, programIDs []int) {
	if s.activityRepo == nil || s.programRepo == nil {
		return
	}
	for _, programID := range programIDs {
		count, err := s.activityRepo.CountByProgramID(ctx, programID)
		if err != nil {
			slog.Warn("failed to count participants",
				slog.Int("program_id", programID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.programRepo.UpdateParticipants(ctx, programID, count); err != nil {
			slog.Warn("failed to update participants",
				slog.Int("program_id", programID),
				slog.String("error", err.Error()),
			)
		}
	}
}
