package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sportsreg/internal/middleware"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/security"
	"github.com/hitoshi/sportsreg/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// List は全ユーザーを返す。管理画面用。
	List(ctx context.Context) ([]*model.User, error)
	// Get はユーザーを1件取得する。
	Get(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile はユーザー自身のプロフィールを更新する。
	UpdateProfile(ctx context.Context, userID string, input user.ProfileInput) (*model.User, error)
	// UpdateRole はユーザーのロールを変更する。管理者専用。
	UpdateRole(ctx context.Context, userID string, role model.Role) (*model.User, error)
	// Delete はユーザーと関連データを削除する。管理者専用。
	Delete(ctx context.Context, userID string) error
}

// LatestRegistrationFinder はユーザーの最新の登録申込の取得インターフェース。
// registration.Serviceが満たす。
type LatestRegistrationFinder interface {
	GetLatestRegistration(ctx context.Context, userID string) (*model.Registration, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service       UserServiceInterface
	registrations LatestRegistrationFinder
	audit         *security.AuditLogger
}

// NewUserHandler はUserHandlerを生成する。
// registrationsはnilでもよく、その場合ユーザー詳細に登録申込は含まれない。
func NewUserHandler(service UserServiceInterface, registrations LatestRegistrationFinder, audit *security.AuditLogger) *UserHandler {
	return &UserHandler{
		service:       service,
		registrations: registrations,
		audit:         audit,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Age       string `json:"age"`
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateProfile はログインユーザー自身のプロフィールを更新する。
// PUT /api/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, user.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Age:       req.Age,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// ListUsers は全ユーザーの一覧を返す。管理者専用。
// GET /api/admin/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetUser はユーザー詳細を返す。管理者専用。
// プロフィールに加えて、登録フォームで申告された最新の登録申込
// （緊急連絡先・興味のあるプログラム）を含める。
// GET /api/admin/users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	u, err := h.service.Get(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := userDetailResponse{userResponse: toUserResponse(u)}
	if h.registrations != nil {
		reg, err := h.registrations.GetLatestRegistration(r.Context(), targetID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if reg != nil {
			r := toRegistrationResponse(reg)
			resp.LatestRegistration = &r
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateRole はユーザーのロールを変更する。管理者専用。
// PUT /api/admin/users/:id/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateRole(r.Context(), targetID, model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.auditAdminAction(r, "role changed",
		slog.String("target_user_id", targetID),
		slog.String("new_role", req.Role),
	)

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// DeleteUser はユーザーと関連データを削除する。管理者専用。
// DELETE /api/admin/users/:id
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), targetID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.auditAdminAction(r, "user deleted",
		slog.String("target_user_id", targetID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// auditAdminAction は管理操作を実行者のIDとともに監査ログへ記録する。
func (h *UserHandler) auditAdminAction(r *http.Request, message string, attrs ...slog.Attr) {
	if h.audit == nil {
		return
	}
	actorID, _ := middleware.UserIDFromContext(r.Context())
	attrs = append(attrs, slog.String("actor_user_id", actorID))
	h.audit.Info(security.AuditCategoryAdmin, message, attrs...)
}
