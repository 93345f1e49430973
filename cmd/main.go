package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"taskflow/internal/analytics"
	"taskflow/internal/caching"
	"taskflow/internal/config"
	"taskflow/internal/handlers"
	"taskflow/internal/jobs"
	"taskflow/internal/jobs/background"
	"taskflow/internal/middleware"
	"taskflow/internal/repositories"
	"taskflow/internal/services"
	"taskflow/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "worker" {
		err = runWorker(ctx, cfg)
	} else {
		err = runServer(ctx, cfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("taskflow exited with error", "error", err)
		os.Exit(1)
	}
}

// runWorker consumes the notification queue and delivers emails until ctx is cancelled.
func runWorker(ctx context.Context, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required in worker mode")
	}

	mailer, err := services.NewEmailService(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		return err
	}

	slog.Info("starting notification worker", "queue", cfg.NotificationQueue, "version", version)
	return jobs.NewNotificationWorker(cfg.AMQPURL, cfg.NotificationQueue, mailer).Run(ctx)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	var cache caching.CacheService
	if cfg.RedisAddr != "" {
		cache = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = cache.Close() }()
	}

	var archiveStore services.ArchiveStore
	if cfg.MinioEnabled() {
		archiveStore, err = services.NewMinioArchiveStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			slog.Warn("archive snapshots disabled", "error", err)
			archiveStore = nil
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	resetRepo := repositories.NewPasswordResetRepo(pool)
	taskRepo := repositories.NewTaskRepo(pool)
	familyRepo := repositories.NewFamilyRepo(pool)
	familyTaskRepo := repositories.NewFamilyTaskRepo(pool)
	dashboardRepo := repositories.NewDashboardRepo(pool)

	// Services
	publisher := services.NewNotificationPublisher(cfg.AMQPURL, cfg.NotificationQueue)
	authService := services.NewAuthService(userRepo, resetRepo, publisher, services.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	dashboardService := analytics.NewDashboardService(dashboardRepo, cache, cfg.CacheTTL)
	taskService := services.NewTaskService(taskRepo, dashboardService, archiveStore)
	familyService := services.NewFamilyService(familyRepo)
	familyTaskService := services.NewFamilyTaskService(familyRepo, familyTaskRepo)

	if cfg.ArchiveEnabled {
		scheduler, err := background.NewJobScheduler(taskRepo, taskService, cfg.ArchiveCron)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Error("failed to stop scheduler", "error", err)
			}
		}()
	}

	e := newEcho(cfg)

	router := &handlers.Router{
		Auth:      handlers.NewAuthHandlers(authService),
		Tasks:     handlers.NewTaskHandlers(taskService),
		Family:    handlers.NewFamilyHandlers(familyService, familyTaskService),
		Dashboard: handlers.NewDashboardHandlers(dashboardService),
		Health:    handlers.NewHealthHandlers(pool, cache, version),
	}
	router.Register(e,
		middleware.JWT(cfg.JWTSecret),
		middleware.RateLimit(cache, "auth", cfg.RateLimit, cfg.RateLimitWindow),
	)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "env", cfg.Env, "version", version)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = handlers.NewRequestValidator()

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(middleware.VersionHeader(version))
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))

	if cfg.IsDevelopment() {
		e.Debug = true
	}
	return e
}
