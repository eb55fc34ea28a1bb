package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sportsreg/internal/metrics"
	"github.com/hitoshi/sportsreg/internal/middleware"
	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/security"
)

// デフォルトのロール解決タイムアウト。
const defaultRoleLookupTimeout = 3 * time.Second

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	Audit             *security.AuditLogger
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RoleLookupTimeout time.Duration

	// 運用エンドポイント
	HealthChecker  HealthChecker // nil可
	MetricsHandler http.Handler  // nil可。/metricsにマウントされる

	// メトリクス（nil可）
	Metrics metrics.MetricsCollector

	// サービス
	AuthService         AuthServiceInterface
	AuthConfig          AuthHandlerConfig
	ProgramService      ProgramServiceInterface
	RegistrationService RegistrationServiceInterface
	RatingService       RatingServiceInterface
	UserService         UserServiceInterface

	// 管理画面のユーザー詳細に最新の登録申込を含める（nil可）
	RegistrationFinder LatestRegistrationFinder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → CSRF
//
// 認証が必要なルートにはさらに Session → RateLimit が適用され、
// 管理者ルートには Role(admin) が追加される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	lookupTimeout := deps.RoleLookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = defaultRoleLookupTimeout
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.AuthConfig)
	programHandler := NewProgramHandler(deps.ProgramService, deps.RatingService, deps.Metrics)
	activityHandler := NewActivityHandler(deps.RegistrationService, deps.Metrics)
	ratingHandler := NewRatingHandler(deps.RatingService, deps.Metrics)
	userHandler := NewUserHandler(deps.UserService, deps.RegistrationFinder, deps.Audit)

	// ログインユーザーをコンテキストに解決する（ロール制限なし）
	resolveUser := middleware.NewRoleMiddleware(deps.UserFinder, deps.Audit, lookupTimeout)
	// 管理者のみ許可する
	adminOnly := middleware.NewRoleMiddleware(deps.UserFinder, deps.Audit, lookupTimeout, model.RoleAdmin)

	// --- 認証不要のルート ---

	r.Get("/healthz", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.Audit))
		r.Use(deps.RateLimiter.Middleware())

		// セッション管理
		r.Post("/api/logout", authHandler.Logout)
		r.Get("/api/me", authHandler.Me)
		r.Put("/api/me/profile", userHandler.UpdateProfile)

		// プログラムカタログ
		r.Get("/api/programs", programHandler.ListPrograms)
		r.Get("/api/programs/{id}", programHandler.GetProgram)

		// 参加には解決済みユーザーが必要（確認メールの宛先になる）
		r.With(resolveUser).Post("/api/programs/{id}/join", activityHandler.JoinProgram)
		r.Delete("/api/programs/{id}/join", activityHandler.LeaveProgram)

		// 評価
		r.Post("/api/programs/{id}/rating", ratingHandler.RateProgram)
		r.Get("/api/programs/{id}/rating", ratingHandler.GetRating)

		// 参加記録
		r.Get("/api/activities", activityHandler.ListActivities)

		// --- 管理者専用ルート ---
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Post("/api/programs", programHandler.AddProgram)
			r.Patch("/api/programs/{id}", programHandler.UpdateProgram)
			r.Delete("/api/programs/{id}", programHandler.DeleteProgram)
			r.Post("/api/programs/renumber", programHandler.RenumberPrograms)

			r.Route("/api/admin/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetUser)
					r.Put("/role", userHandler.UpdateRole)
					r.Delete("/", userHandler.DeleteUser)
				})
			})
		})
	})

	return r
}
