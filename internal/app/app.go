// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/sportsreg/internal/auth"
	"github.com/hitoshi/sportsreg/internal/config"
	"github.com/hitoshi/sportsreg/internal/database"
	"github.com/hitoshi/sportsreg/internal/handler"
	"github.com/hitoshi/sportsreg/internal/logger"
	"github.com/hitoshi/sportsreg/internal/metrics"
	"github.com/hitoshi/sportsreg/internal/middleware"
	"github.com/hitoshi/sportsreg/internal/notification"
	"github.com/hitoshi/sportsreg/internal/program"
	"github.com/hitoshi/sportsreg/internal/rating"
	"github.com/hitoshi/sportsreg/internal/registration"
	"github.com/hitoshi/sportsreg/internal/repository"
	"github.com/hitoshi/sportsreg/internal/security"
	"github.com/hitoshi/sportsreg/internal/user"
	"github.com/hitoshi/sportsreg/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envファイルがあれば環境変数へ取り込む（無ければそのまま）
	_ = godotenv.Load()

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	regRepo := repository.NewPostgresRegistrationRepo(db)
	programRepo := repository.NewPostgresProgramRepo(db)
	activityRepo := repository.NewPostgresActivityRepo(db)
	ratingRepo := repository.NewPostgresRatingRepo(db)

	// 3. メトリクスの初期化
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	// 4. 通知ディスパッチャの初期化
	// 通知エンドポイントは環境変数由来のため、起動時に安全性を検証する
	ssrfGuard := security.NewSSRFGuard()
	if err := ssrfGuard.ValidateURL(cfg.EmailFunctionURL); err != nil {
		return fmt.Errorf("unsafe EMAIL_FUNCTION_URL: %w", err)
	}

	notifClient := notification.NewClient(
		ssrfGuard.NewSafeClient(cfg.NotifyTimeout),
		slog.Default(),
		cfg.EmailFunctionURL,
	)
	dispatcher := notification.NewDispatcher(notifClient, slog.Default(), collector, notification.DispatcherConfig{
		QueueSize:   cfg.NotifyQueueSize,
		MaxRetries:  cfg.NotifyMaxRetries,
		SendTimeout: cfg.NotifyTimeout,
		FromName:    cfg.EmailFromName,
	})

	// 5. ドメインサービスの初期化
	loginLimiterCfg := auth.DefaultLoginLimiterConfig()
	loginLimiterCfg.MaxAttempts = cfg.LoginMaxAttempts
	loginLimiterCfg.Window = cfg.LoginWindow
	loginLimiter := auth.NewLoginLimiter(loginLimiterCfg)
	defer loginLimiter.Stop()

	authService := auth.NewService(
		userRepo, identRepo, sessionRepo, regRepo, loginLimiter,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	regService := registration.NewService(activityRepo, programRepo, regRepo, dispatcher)
	ratingService := rating.NewService(ratingRepo, activityRepo, programRepo)
	programService := program.NewService(programRepo, activityRepo, ratingRepo)
	userService := user.NewService(userRepo, sessionRepo, activityRepo, programRepo)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		SessionFinder:     sessionRepo,
		UserFinder:        userRepo,
		Audit:             security.NewAuditLogger(slog.Default()),
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RoleLookupTimeout: cfg.RoleLookupTimeout,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(promRegistry),
		Metrics:        collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		ProgramService:      programService,
		RegistrationService: regService,
		RatingService:       ratingService,
		UserService:         userService,
		RegistrationFinder:  regService,
	})

	// 7. バックグラウンドジョブの起動
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	dispatcher.Start(dispatchCtx)

	cleanupJob := cleanup.NewSessionCleanupJob(db, slog.Default())
	go cleanupJob.Start(dispatchCtx, cfg.SessionCleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 送信待ちの通知を破棄してディスパッチャを停止する
	cancelDispatch()
	dispatcher.Wait()

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はプログラムカタログの初期データを投入する。
// 既に存在するIDはスキップするため、何度実行しても安全。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	programRepo := repository.NewPostgresProgramRepo(db)
	seeded, err := SeedPrograms(ctx, programRepo)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed", slog.Int("programs_created", seeded))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
