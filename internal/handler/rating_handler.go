package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sportsreg/internal/middleware"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/rating"
)

// RatingServiceInterface は評価ハンドラーが必要とするサービスインターフェース。
type RatingServiceInterface interface {
	// AddOrUpdate はユーザーの評価を登録または上書きする。未参加はNOT_JOINEDエラー。
	AddOrUpdate(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error)
	// GetUserRating はユーザー自身の評価を返す。未評価はnil。
	GetUserRating(ctx context.Context, userID string, programID int) (*model.Rating, error)
	// GetSummary はプログラムの平均評価と件数を返す。
	GetSummary(ctx context.Context, programID int) (*model.RatingSummary, error)
}

// RatingMetrics は評価イベントのメトリクス記録のインターフェース。
type RatingMetrics interface {
	RecordRating()
}

// RatingHandler はプログラム評価のHTTPハンドラー。
type RatingHandler struct {
	service RatingServiceInterface
	metrics RatingMetrics
}

// NewRatingHandler はRatingHandlerを生成する。metricsはnilでもよい。
func NewRatingHandler(service RatingServiceInterface, metrics RatingMetrics) *RatingHandler {
	return &RatingHandler{
		service: service,
		metrics: metrics,
	}
}

// rateProgramRequest は評価リクエストのボディ。
// 値は文字列で受け取り、数値解釈と1〜5への丸めはサービス層で行う。
type rateProgramRequest struct {
	Value string `json:"value"`
}

// rateProgramResponse は評価登録のAPIレスポンス。
type rateProgramResponse struct {
	Value   int                   `json:"value"`
	Updated bool                  `json:"updated"`
	Summary ratingSummaryResponse `json:"summary"`
}

// userRatingResponse はユーザー自身の評価のAPIレスポンス。
type userRatingResponse struct {
	Value   *int                  `json:"value"`
	Summary ratingSummaryResponse `json:"summary"`
}

// RateProgram はプログラムへの評価を登録または上書きする。
// POST /api/programs/:id/rating
func (h *RatingHandler) RateProgram(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	programID, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	var req rateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.AddOrUpdate(r.Context(), userID, programID, req.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRating()
	}

	summary, err := h.service.GetSummary(r.Context(), programID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rateProgramResponse{
		Value:   result.Rating.Value,
		Updated: result.Updated,
		Summary: ratingSummaryResponse{
			Average: summary.Average,
			Count:   summary.Count,
		},
	})
}

// GetRating はユーザー自身の評価とプログラムの平均評価を返す。
// 未評価の場合、valueはnullになる。
// GET /api/programs/:id/rating
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	programID, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	userRating, err := h.service.GetUserRating(r.Context(), userID, programID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summary, err := h.service.GetSummary(r.Context(), programID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := userRatingResponse{
		Summary: ratingSummaryResponse{
			Average: summary.Average,
			Count:   summary.Count,
		},
	}
	if userRating != nil {
		resp.Value = &userRating.Value
	}
	writeJSON(w, http.StatusOK, resp)
}
