// Package auth はメールアドレスとパスワードによる認証、セッション管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
	"github.com/hitoshi/sportsreg/internal/security"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// RegisterInput は登録フォームの入力を表す。
type RegisterInput struct {
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Age                string
	Password           string
	ConfirmPassword    string
	InterestedPrograms []string
	EmergencyContact   string
	EmergencyPhone     string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	regRepo     repository.RegistrationRepository
	limiter     *LoginLimiter
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	regRepo repository.RegistrationRepository,
	limiter *LoginLimiter,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		regRepo:     regRepo,
		limiter:     limiter,
		config:      config,
	}
}

// Register は登録フォームの入力を検証し、ユーザー・認証情報・登録申込を作成して
// セッションを発行する。全入力はサニタイズしてから検証・保存する。
// メールアドレスが既に使用されている場合はDUPLICATE_EMAILエラーを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, *model.Session, error) {
	// 1. サニタイズ
	firstName := security.SanitizeInput(input.FirstName)
	lastName := security.SanitizeInput(input.LastName)
	emergencyContact := security.SanitizeInput(input.EmergencyContact)

	email, emailOK := security.SanitizeEmail(input.Email)
	if !emailOK {
		return nil, nil, model.NewValidationError("有効なメールアドレスを入力してください")
	}

	// 2. 検証
	if msg := security.ValidateName(firstName); msg != "" {
		return nil, nil, model.NewValidationError(msg)
	}
	if msg := security.ValidateName(lastName); msg != "" {
		return nil, nil, model.NewValidationError(msg)
	}

	phone, phoneOK := security.SanitizePhone(input.Phone)
	if !phoneOK {
		return nil, nil, model.NewValidationError("有効な電話番号を入力してください（04から始まる10桁）")
	}

	ageValue, ageOK := security.SanitizeNumber(input.Age, 16, 99)
	if !ageOK {
		return nil, nil, model.NewValidationError("年齢は16歳から99歳の範囲で入力してください")
	}
	age := int(ageValue)

	if msg := security.ValidatePassword(input.Password); msg != "" {
		return nil, nil, model.NewWeakPasswordError(msg)
	}
	if msg := security.ValidateConfirmPassword(input.ConfirmPassword, input.Password); msg != "" {
		return nil, nil, model.NewValidationError(msg)
	}

	emergencyPhone := ""
	if input.EmergencyPhone != "" {
		p, ok := security.SanitizePhone(input.EmergencyPhone)
		if !ok {
			return nil, nil, model.NewValidationError("有効な緊急連絡先番号を入力してください（04から始まる10桁）")
		}
		emergencyPhone = p
	}

	interested := make([]string, 0, len(input.InterestedPrograms))
	for _, p := range input.InterestedPrograms {
		if sanitized := security.SanitizeInput(p); sanitized != "" {
			interested = append(interested, sanitized)
		}
	}

	// 3. パスワードハッシュ生成
	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	// 4. ユーザーと認証情報を同一トランザクションで作成
	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Age:       age,
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	identity := &model.Identity{
		UserID:       user.ID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}

	err = s.userRepo.CreateWithIdentity(ctx, user, identity)
	if err == repository.ErrDuplicateKey {
		return nil, nil, model.NewDuplicateEmailError()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user and identity: %w", err)
	}

	// 5. 登録申込履歴を追記。失敗してもアカウント作成は成立させる
	reg := &model.Registration{
		ID:                 uuid.New().String(),
		UserID:             user.ID,
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
		Phone:              phone,
		Age:                age,
		InterestedPrograms: interested,
		EmergencyContact:   emergencyContact,
		EmergencyPhone:     emergencyPhone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		slog.Warn("failed to save registration record",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	// 6. セッションを発行
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	return user, session, nil
}

// Login はメールアドレスとパスワードを照合し、セッションを発行する。
// 同一メールアドレスへの試行はLoginLimiterで制限し、超過時はRATE_LIMITEDを返す。
// 未登録・パスワード不一致はいずれもINVALID_CREDENTIALSに揃え、存在の有無を漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	sanitized, ok := security.SanitizeEmail(email)
	if !ok {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if s.limiter != nil && !s.limiter.Allow(sanitized) {
		slog.Warn("login rate limit exceeded", slog.String("email", sanitized))
		return nil, nil, model.NewRateLimitedError()
	}

	identity, err := s.identRepo.FindByEmail(ctx, sanitized)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find identity: %w", err)
	}
	if identity == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if !ComparePassword(identity.PasswordHash, password) {
		slog.Warn("login failed", slog.String("email", sanitized))
		return nil, nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	// 最終ログイン日時の更新は失敗してもログイン自体は成立させる
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return user, session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetSession は指定IDのセッションを取得する。期限切れ・不明の場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}

// createSession はCSRFトークン付きのセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	csrfToken, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF token: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		CSRFToken: csrfToken,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}
