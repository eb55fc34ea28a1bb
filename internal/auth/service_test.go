package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn        func(ctx context.Context, email string) (*model.User, error)
	createWithIdentityFn func(ctx context.Context, user *model.User, identity *model.Identity) error
	updateLastLoginFn    func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if m.createWithIdentityFn != nil {
		return m.createWithIdentityFn(ctx, user, identity)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, _ *model.User) error { return nil }

func (m *mockUserRepo) UpdateRole(_ context.Context, _ string, _ model.Role) error { return nil }

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*model.User, error) { return nil, nil }

func (m *mockUserRepo) DeleteByID(_ context.Context, _ string) error { return nil }

type mockIdentityRepo struct {
	findByEmailFn func(ctx context.Context, email string) (*model.Identity, error)
}

func (m *mockIdentityRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockRegistrationRepo struct {
	createFn func(ctx context.Context, reg *model.Registration) error
}

func (m *mockRegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	if m.createFn != nil {
		return m.createFn(ctx, reg)
	}
	return nil
}

func (m *mockRegistrationRepo) FindLatestByUserID(_ context.Context, _ string) (*model.Registration, error) {
	return nil, nil
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FirstName:       "Taro",
		LastName:        "Yamada",
		Email:           "taro@example.com",
		Phone:           "0412345678",
		Age:             "25",
		Password:        "password1",
		ConfirmPassword: "password1",
	}
}

func newTestService(userRepo *mockUserRepo, identRepo *mockIdentityRepo, sessionRepo *mockSessionRepo, regRepo *mockRegistrationRepo) *Service {
	return NewService(userRepo, identRepo, sessionRepo, regRepo, nil, ServiceConfig{SessionMaxAge: 86400})
}

// --- Register ---

// 正常な入力でユーザーとセッションが作成されることを検証
func TestService_Register_Success(t *testing.T) {
	var createdUser *model.User
	var createdIdentity *model.Identity
	var createdReg *model.Registration

	userRepo := &mockUserRepo{
		createWithIdentityFn: func(_ context.Context, user *model.User, identity *model.Identity) error {
			createdUser = user
			createdIdentity = identity
			return nil
		},
	}
	regRepo := &mockRegistrationRepo{
		createFn: func(_ context.Context, reg *model.Registration) error {
			createdReg = reg
			return nil
		},
	}
	svc := newTestService(userRepo, &mockIdentityRepo{}, &mockSessionRepo{}, regRepo)

	input := validRegisterInput()
	input.Email = "  Taro@Example.COM "
	user, session, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "taro@example.com" {
		t.Errorf("user.Email = %q, want %q", user.Email, "taro@example.com")
	}
	if user.Role != model.RoleUser {
		t.Errorf("user.Role = %q, want %q", user.Role, model.RoleUser)
	}
	if user.Age != 25 {
		t.Errorf("user.Age = %d, want %d", user.Age, 25)
	}
	if session == nil || session.ID == "" {
		t.Fatal("expected non-empty session")
	}
	if session.CSRFToken == "" {
		t.Error("expected non-empty CSRF token")
	}

	if createdUser == nil || createdIdentity == nil {
		t.Fatal("expected user and identity to be created")
	}
	if createdIdentity.PasswordHash == "password1" {
		t.Error("password must not be stored in plain text")
	}
	if !ComparePassword(createdIdentity.PasswordHash, "password1") {
		t.Error("stored hash does not match original password")
	}
	if createdReg == nil {
		t.Fatal("expected registration record to be created")
	}
	if createdReg.UserID != user.ID {
		t.Errorf("reg.UserID = %q, want %q", createdReg.UserID, user.ID)
	}
}

// メールアドレス重複時にDUPLICATE_EMAILが返ることを検証
func TestService_Register_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		createWithIdentityFn: func(_ context.Context, _ *model.User, _ *model.Identity) error {
			return repository.ErrDuplicateKey
		},
	}
	svc := newTestService(userRepo, &mockIdentityRepo{}, &mockSessionRepo{}, &mockRegistrationRepo{})

	_, _, err := svc.Register(context.Background(), validRegisterInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateEmail)
	}
}

// 不正な入力が弾かれることを検証
func TestService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(in *RegisterInput)
		wantCode string
	}{
		{
			name:     "短すぎる名前",
			mutate:   func(in *RegisterInput) { in.FirstName = "A" },
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "不正なメールアドレス",
			mutate:   func(in *RegisterInput) { in.Email = "not-an-email" },
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "04で始まらない電話番号",
			mutate:   func(in *RegisterInput) { in.Phone = "0312345678" },
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "範囲外の年齢",
			mutate:   func(in *RegisterInput) { in.Age = "15" },
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "数字を含まないパスワード",
			mutate:   func(in *RegisterInput) { in.Password = "passwordonly"; in.ConfirmPassword = "passwordonly" },
			wantCode: model.ErrCodeWeakPassword,
		},
		{
			name:     "確認パスワード不一致",
			mutate:   func(in *RegisterInput) { in.ConfirmPassword = "different1" },
			wantCode: model.ErrCodeValidation,
		},
	}

	svc := newTestService(&mockUserRepo{}, &mockIdentityRepo{}, &mockSessionRepo{}, &mockRegistrationRepo{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRegisterInput()
			tt.mutate(&input)

			_, _, err := svc.Register(context.Background(), input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// --- Login ---

// 正しい資格情報でログインできることを検証
func TestService_Login_Success(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	lastLoginUpdated := false
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com", Role: model.RoleUser}, nil
		},
		updateLastLoginFn: func(_ context.Context, _ string) error {
			lastLoginUpdated = true
			return nil
		},
	}
	identRepo := &mockIdentityRepo{
		findByEmailFn: func(_ context.Context, _ string) (*model.Identity, error) {
			return &model.Identity{UserID: "user-1", Email: "taro@example.com", PasswordHash: hash}, nil
		},
	}
	svc := newTestService(userRepo, identRepo, &mockSessionRepo{}, &mockRegistrationRepo{})

	user, session, err := svc.Login(context.Background(), "Taro@Example.com", "password1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if session == nil || session.ID == "" {
		t.Fatal("expected non-empty session")
	}
	if !lastLoginUpdated {
		t.Error("expected last login to be updated")
	}
}

// 未登録メールとパスワード不一致が同一のエラーになることを検証
func TestService_Login_InvalidCredentials(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name      string
		identRepo *mockIdentityRepo
		password  string
	}{
		{
			name:      "未登録のメールアドレス",
			identRepo: &mockIdentityRepo{},
			password:  "password1",
		},
		{
			name: "パスワード不一致",
			identRepo: &mockIdentityRepo{
				findByEmailFn: func(_ context.Context, _ string) (*model.Identity, error) {
					return &model.Identity{UserID: "user-1", PasswordHash: hash}, nil
				},
			},
			password: "wrongpass1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockUserRepo{}, tt.identRepo, &mockSessionRepo{}, &mockRegistrationRepo{})

			_, _, err := svc.Login(context.Background(), "taro@example.com", tt.password)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
			}
		})
	}
}

// 試行回数超過でRATE_LIMITEDが返ることを検証
func TestService_Login_RateLimited(t *testing.T) {
	limiter := NewLoginLimiter(LoginLimiterConfig{
		MaxAttempts:     2,
		Window:          5 * time.Minute,
		CleanupInterval: time.Minute,
	})
	defer limiter.Stop()

	identRepo := &mockIdentityRepo{}
	svc := NewService(&mockUserRepo{}, identRepo, &mockSessionRepo{}, &mockRegistrationRepo{}, limiter, ServiceConfig{SessionMaxAge: 86400})

	// 上限まで失敗させる
	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), "taro@example.com", "wrongpass1")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
			t.Fatalf("attempt %d: expected INVALID_CREDENTIALS, got %v", i+1, err)
		}
	}

	_, _, err := svc.Login(context.Background(), "taro@example.com", "wrongpass1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeRateLimited {
		t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, model.ErrCodeRateLimited)
	}
}

// --- GetCurrentUser ---

// 有効なセッションからユーザーを解決できることを検証
func TestService_GetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAdmin}, nil
		},
	}
	svc := newTestService(userRepo, &mockIdentityRepo{}, sessionRepo, &mockRegistrationRepo{})

	user, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("user.Role = %q, want %q", user.Role, model.RoleAdmin)
	}
}

// 期限切れ・不明なセッションでUNAUTHORIZEDが返ることを検証
func TestService_GetCurrentUser_SessionNotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockIdentityRepo{}, &mockSessionRepo{}, &mockRegistrationRepo{})

	_, err := svc.GetCurrentUser(context.Background(), "unknown-session")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

// Logoutがセッションを削除することを検証
func TestService_Logout_DeletesSession(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, &mockIdentityRepo{}, sessionRepo, &mockRegistrationRepo{})

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if deleted != "session-1" {
		t.Errorf("deleted session = %q, want %q", deleted, "session-1")
	}
}
