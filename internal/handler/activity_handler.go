package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/sportsreg/internal/middleware"
	"github.com/hitoshi/sportsreg/internal/model"
)

// RegistrationServiceInterface は参加ハンドラーが必要とするサービスインターフェース。
type RegistrationServiceInterface interface {
	// JoinProgram はユーザーをプログラムに参加させる。二重参加はALREADY_JOINEDエラー。
	JoinProgram(ctx context.Context, user *model.User, programID int) (*model.Activity, error)
	// LeaveProgram はプログラムへの参加を取り消す。未参加はNOT_JOINEDエラー。
	LeaveProgram(ctx context.Context, userID string, programID int) error
	// ListActivities はユーザーの参加記録を参加日の降順で返す。
	ListActivities(ctx context.Context, userID string) ([]*model.Activity, error)
}

// ActivityMetrics は参加イベントのメトリクス記録のインターフェース。
type ActivityMetrics interface {
	RecordJoin()
	RecordLeave()
}

// ActivityHandler はプログラム参加のHTTPハンドラー。
type ActivityHandler struct {
	service RegistrationServiceInterface
	metrics ActivityMetrics
}

// NewActivityHandler はActivityHandlerを生成する。metricsはnilでもよい。
func NewActivityHandler(service RegistrationServiceInterface, metrics ActivityMetrics) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		metrics: metrics,
	}
}

// JoinProgram はプログラムへの参加を処理する。
// 参加確認メールはバックグラウンドで送信され、レスポンスを待たせない。
// POST /api/programs/:id/join
func (h *ActivityHandler) JoinProgram(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	programID, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	activity, err := h.service.JoinProgram(r.Context(), user, programID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordJoin()
	}

	writeJSON(w, http.StatusCreated, toActivityResponse(activity))
}

// LeaveProgram はプログラムへの参加を取り消す。
// DELETE /api/programs/:id/join
func (h *ActivityHandler) LeaveProgram(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	programID, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.LeaveProgram(r.Context(), userID, programID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLeave()
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListActivities はログインユーザーの参加記録一覧を返す。
// GET /api/activities
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	activities, err := h.service.ListActivities(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]activityResponse, len(activities))
	for i, a := range activities {
		results[i] = toActivityResponse(a)
	}
	writeJSON(w, http.StatusOK, results)
}
