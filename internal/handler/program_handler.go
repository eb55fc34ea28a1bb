package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/program"
)

// ProgramServiceInterface はプログラムハンドラーが必要とするサービスインターフェース。
type ProgramServiceInterface interface {
	// List は全プログラムをIDの昇順で返す。
	List(ctx context.Context) ([]*model.Program, error)
	// Get はプログラムを1件取得する。
	Get(ctx context.Context, id int) (*model.Program, error)
	// Add はプログラムを追加し、最大ID+1のIDを採番する。
	Add(ctx context.Context, input program.AddInput) (*model.Program, error)
	// Update はプログラムを部分更新する。
	Update(ctx context.Context, id int, input program.UpdateInput) (*model.Program, error)
	// Delete はプログラムを削除し、IDを連番に詰め直す。
	Delete(ctx context.Context, id int) error
	// Renumber は全プログラムのIDを1からの連番に詰め直し、付け替え件数を返す。
	Renumber(ctx context.Context) (int, error)
}

// RatingSummarizer はプログラムの平均評価を取得するインターフェース。
type RatingSummarizer interface {
	GetSummary(ctx context.Context, programID int) (*model.RatingSummary, error)
}

// ProgramMetrics はプログラム管理イベントのメトリクス記録のインターフェース。
type ProgramMetrics interface {
	RecordRenumberedPrograms(count int)
}

// ProgramHandler はプログラムカタログのHTTPハンドラー。
type ProgramHandler struct {
	service    ProgramServiceInterface
	summarizer RatingSummarizer
	metrics    ProgramMetrics
}

// NewProgramHandler はProgramHandlerを生成する。metricsはnilでもよい。
func NewProgramHandler(service ProgramServiceInterface, summarizer RatingSummarizer, metrics ProgramMetrics) *ProgramHandler {
	return &ProgramHandler{
		service:    service,
		summarizer: summarizer,
		metrics:    metrics,
	}
}

// addProgramRequest はプログラム追加リクエストのボディ。
type addProgramRequest struct {
	Name                string `json:"name"`
	Category            string `json:"category"`
	Price               string `json:"price"`
	Description         string `json:"description"`
	DetailedDescription string `json:"detailed_description"`
	Schedule            string `json:"schedule"`
	Location            string `json:"location"`
	Difficulty          string `json:"difficulty"`
	MaxParticipants     int    `json:"max_participants"`
}

// updateProgramRequest はプログラム更新リクエストのボディ。省略したフィールドは変更しない。
type updateProgramRequest struct {
	Name                *string `json:"name"`
	Category            *string `json:"category"`
	Price               *string `json:"price"`
	Description         *string `json:"description"`
	DetailedDescription *string `json:"detailed_description"`
	Schedule            *string `json:"schedule"`
	Location            *string `json:"location"`
	Difficulty          *string `json:"difficulty"`
	MaxParticipants     *int    `json:"max_participants"`
}

// programDetailResponse はプログラム詳細のAPIレスポンス。平均評価を含む。
type programDetailResponse struct {
	programResponse
	Rating ratingSummaryResponse `json:"rating"`
}

// renumberResponse はID詰め直し結果のAPIレスポンス。
type renumberResponse struct {
	Renumbered int `json:"renumbered"`
}

// ListPrograms は全プログラムの一覧を返す。
// GET /api/programs
func (h *ProgramHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]programResponse, len(programs))
	for i, p := range programs {
		results[i] = toProgramResponse(p)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetProgram はプログラム詳細を平均評価付きで返す。
// GET /api/programs/:id
func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summary, err := h.summarizer.GetSummary(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, programDetailResponse{
		programResponse: toProgramResponse(p),
		Rating: ratingSummaryResponse{
			Average: summary.Average,
			Count:   summary.Count,
		},
	})
}

// AddProgram はプログラムを追加する。管理者専用。
// POST /api/programs
func (h *ProgramHandler) AddProgram(w http.ResponseWriter, r *http.Request) {
	var req addProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Add(r.Context(), program.AddInput{
		Name:                req.Name,
		Category:            req.Category,
		Price:               req.Price,
		Description:         req.Description,
		DetailedDescription: req.DetailedDescription,
		Schedule:            req.Schedule,
		Location:            req.Location,
		Difficulty:          req.Difficulty,
		MaxParticipants:     req.MaxParticipants,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProgramResponse(p))
}

// UpdateProgram はプログラムを部分更新する。管理者専用。
// PATCH /api/programs/:id
func (h *ProgramHandler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	var req updateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), id, program.UpdateInput{
		Name:                req.Name,
		Category:            req.Category,
		Price:               req.Price,
		Description:         req.Description,
		DetailedDescription: req.DetailedDescription,
		Schedule:            req.Schedule,
		Location:            req.Location,
		Difficulty:          req.Difficulty,
		MaxParticipants:     req.MaxParticipants,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponse(p))
}

// DeleteProgram はプログラムを削除する。管理者専用。
// 削除後は残りのプログラムのIDが1からの連番に詰め直される。
// DELETE /api/programs/:id
func (h *ProgramHandler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RenumberPrograms は全プログラムのIDを連番に詰め直す。管理者専用。
// POST /api/programs/renumber
func (h *ProgramHandler) RenumberPrograms(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Renumber(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil && count > 0 {
		h.metrics.RecordRenumberedPrograms(count)
	}

	writeJSON(w, http.StatusOK, renumberResponse{Renumbered: count})
}

// programIDFromURL はURLパラメータからプログラムIDを取り出す。
// 整数でない場合はエラーレスポンスを書き出してfalseを返す。
func programIDFromURL(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("プログラムIDは1以上の整数で指定してください"))
		return 0, false
	}
	return id, true
}
