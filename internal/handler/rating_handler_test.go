package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/rating"
)

// --- モック定義 ---

// mockRatingService はRatingServiceInterfaceのモック実装。
type mockRatingService struct {
	addOrUpdateFn   func(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error)
	getUserRatingFn func(ctx context.Context, userID string, programID int) (*model.Rating, error)
	getSummaryFn    func(ctx context.Context, programID int) (*model.RatingSummary, error)
}

func (m *mockRatingService) AddOrUpdate(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error) {
	if m.addOrUpdateFn != nil {
		return m.addOrUpdateFn(ctx, userID, programID, raw)
	}
	return nil, nil
}

func (m *mockRatingService) GetUserRating(ctx context.Context, userID string, programID int) (*model.Rating, error) {
	if m.getUserRatingFn != nil {
		return m.getUserRatingFn(ctx, userID, programID)
	}
	return nil, nil
}

func (m *mockRatingService) GetSummary(ctx context.Context, programID int) (*model.RatingSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, programID)
	}
	return &model.RatingSummary{}, nil
}

// --- POST /api/programs/:id/rating テスト ---

func TestRatingHandler_RateProgram_Success(t *testing.T) {
	svc := &mockRatingService{
		addOrUpdateFn: func(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if raw != "4" {
				t.Errorf("raw = %q, want %q", raw, "4")
			}
			return &rating.Result{
				Rating:  &model.Rating{UserID: userID, ProgramID: programID, Value: 4},
				Updated: false,
			}, nil
		},
		getSummaryFn: func(ctx context.Context, programID int) (*model.RatingSummary, error) {
			return &model.RatingSummary{Average: 4.2, Count: 5}, nil
		},
	}
	h := NewRatingHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/programs/2/rating", bytes.NewBufferString(`{"value":"4"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.RateProgram(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["value"] != float64(4) {
		t.Errorf("value = %v, want 4", result["value"])
	}
	if result["updated"] != false {
		t.Errorf("updated = %v, want false", result["updated"])
	}
	summary := result["summary"].(map[string]interface{})
	if summary["average"] != 4.2 {
		t.Errorf("average = %v, want 4.2", summary["average"])
	}
}

func TestRatingHandler_RateProgram_InvalidValue(t *testing.T) {
	svc := &mockRatingService{
		addOrUpdateFn: func(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error) {
			return nil, model.NewInvalidRatingError(raw)
		},
	}
	h := NewRatingHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/programs/2/rating", bytes.NewBufferString(`{"value":"abc"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.RateProgram(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeErrorResponse(t, w)
	if body.Code != "INVALID_RATING" {
		t.Errorf("code = %q, want %q", body.Code, "INVALID_RATING")
	}
}

func TestRatingHandler_RateProgram_NotJoined(t *testing.T) {
	svc := &mockRatingService{
		addOrUpdateFn: func(ctx context.Context, userID string, programID int, raw string) (*rating.Result, error) {
			return nil, model.NewNotJoinedError(programID)
		},
	}
	h := NewRatingHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/programs/2/rating", bytes.NewBufferString(`{"value":"5"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.RateProgram(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// --- GET /api/programs/:id/rating テスト ---

func TestRatingHandler_GetRating_WithUserRating(t *testing.T) {
	svc := &mockRatingService{
		getUserRatingFn: func(ctx context.Context, userID string, programID int) (*model.Rating, error) {
			return &model.Rating{UserID: userID, ProgramID: programID, Value: 3}, nil
		},
		getSummaryFn: func(ctx context.Context, programID int) (*model.RatingSummary, error) {
			return &model.RatingSummary{Average: 3.7, Count: 9}, nil
		},
	}
	h := NewRatingHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/programs/2/rating", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.GetRating(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["value"] != float64(3) {
		t.Errorf("value = %v, want 3", result["value"])
	}
}

// 未評価のユーザーにはvalue=nullと全体の平均を返す
func TestRatingHandler_GetRating_NoUserRating(t *testing.T) {
	svc := &mockRatingService{
		getSummaryFn: func(ctx context.Context, programID int) (*model.RatingSummary, error) {
			return &model.RatingSummary{Average: 4.0, Count: 2}, nil
		},
	}
	h := NewRatingHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/programs/2/rating", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.GetRating(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["value"] != nil {
		t.Errorf("value = %v, want null", result["value"])
	}
	summary := result["summary"].(map[string]interface{})
	if summary["count"] != float64(2) {
		t.Errorf("count = %v, want 2", summary["count"])
	}
}
