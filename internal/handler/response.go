package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// userResponse はユーザー情報のAPIレスポンス。
// メールアドレス以外の認証情報は含めない。
type userResponse struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Age       int        `json:"age"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// registrationResponse は登録申込のAPIレスポンス。
type registrationResponse struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Age                int       `json:"age"`
	InterestedPrograms []string  `json:"interested_programs"`
	EmergencyContact   string    `json:"emergency_contact"`
	EmergencyPhone     string    `json:"emergency_phone"`
	CreatedAt          time.Time `json:"created_at"`
}

// userDetailResponse は管理画面のユーザー詳細レスポンス。
// 最新の登録申込が無い場合、latest_registrationはnullになる。
type userDetailResponse struct {
	userResponse
	LatestRegistration *registrationResponse `json:"latest_registration"`
}

// programResponse はプログラム情報のAPIレスポンス。
type programResponse struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Category            string `json:"category"`
	Price               string `json:"price"`
	Description         string `json:"description"`
	DetailedDescription string `json:"detailed_description,omitempty"`
	Schedule            string `json:"schedule,omitempty"`
	Location            string `json:"location"`
	Difficulty          string `json:"difficulty"`
	MaxParticipants     int    `json:"max_participants"`
	Participants        int    `json:"participants"`
}

// activityResponse は参加記録のAPIレスポンス。
type activityResponse struct {
	ID          string    `json:"id"`
	ProgramID   int       `json:"program_id"`
	ProgramName string    `json:"program_name"`
	JoinedDate  time.Time `json:"joined_date"`
	Status      string    `json:"status"`
}

// ratingSummaryResponse はプログラムの平均評価のAPIレスポンス。
type ratingSummaryResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Age:       user.Age,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

func toRegistrationResponse(reg *model.Registration) registrationResponse {
	return registrationResponse{
		ID:                 reg.ID,
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		Email:              reg.Email,
		Phone:              reg.Phone,
		Age:                reg.Age,
		InterestedPrograms: reg.InterestedPrograms,
		EmergencyContact:   reg.EmergencyContact,
		EmergencyPhone:     reg.EmergencyPhone,
		CreatedAt:          reg.CreatedAt,
	}
}

func toProgramResponse(program *model.Program) programResponse {
	return programResponse{
		ID:                  program.ID,
		Name:                program.Name,
		Category:            program.Category,
		Price:               program.Price,
		Description:         program.Description,
		DetailedDescription: program.DetailedDescription,
		Schedule:            program.Schedule,
		Location:            program.Location,
		Difficulty:          program.Difficulty,
		MaxParticipants:     program.MaxParticipants,
		Participants:        program.Participants,
	}
}

func toActivityResponse(activity *model.Activity) activityResponse {
	return activityResponse{
		ID:          activity.ID,
		ProgramID:   activity.ProgramID,
		ProgramName: activity.ProgramName,
		JoinedDate:  activity.JoinedDate,
		Status:      string(activity.Status),
	}
}

// writeJSON はJSONボディを書き出す。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き出す。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は認証切れ・未ログインのレスポンスを書き出す。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// writeInvalidRequestBody はJSONボディの解析失敗レスポンスを書き出す。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRating, model.ErrCodeWeakPassword:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeProgramNotFound, model.ErrCodeActivityNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail, model.ErrCodeAlreadyJoined, model.ErrCodeNotJoined:
		return http.StatusConflict
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
