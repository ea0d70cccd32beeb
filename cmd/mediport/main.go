package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediport/mediport/internal/accounts"
	"github.com/mediport/mediport/internal/app"
	"github.com/mediport/mediport/internal/appointments"
	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/community"
	"github.com/mediport/mediport/internal/documents"
	"github.com/mediport/mediport/internal/notifications"
	"github.com/mediport/mediport/internal/platform/cache"
	"github.com/mediport/mediport/internal/platform/db"
	"github.com/mediport/mediport/internal/platform/storage"
	"github.com/mediport/mediport/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttling disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Error("prepare upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	accountsRepo := accounts.NewRepository(dbpool)
	appointmentsRepo := appointments.NewRepository(dbpool)
	communityRepo := community.NewRepository(dbpool)
	notificationsRepo := notifications.NewRepository(dbpool)
	documentsRepo := documents.NewRepository(dbpool)

	hasher := auth.NewHasher(cfg.BcryptCost)
	codec := auth.NewTokenCodec(cfg.AuthSecret, cfg.AuthTokenTTL)
	throttle := auth.NewLoginThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow)
	guard := auth.NewGuard(appointmentsRepo)
	resolver := auth.NewResolver(codec, accountsRepo)
	authMiddleware := auth.NewMiddleware(resolver)

	authService := auth.NewService(accountsRepo, hasher, codec, throttle, logger)
	notificationsService := notifications.NewService(notificationsRepo)
	accountsService := accounts.NewService(accountsRepo, hasher, guard, auditLogger, logger)
	appointmentsService := appointments.NewService(appointmentsRepo, accountsRepo, guard, notificationsService, auditLogger, logger)
	communityService := community.NewService(communityRepo, guard, notificationsService, auditLogger, logger)
	documentsService := documents.NewService(documentsRepo, accountsRepo, store, guard, notificationsService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthMiddleware:       authMiddleware,
		AuthHandler:          auth.NewHandler(logger, authService),
		AccountsHandler:      accounts.NewHandler(logger, accountsService, store),
		AppointmentsHandler:  appointments.NewHandler(logger, appointmentsService),
		CommunityHandler:     community.NewHandler(logger, communityService),
		NotificationsHandler: notifications.NewHandler(logger, notificationsService),
		DocumentsHandler:     documents.NewHandler(logger, documentsService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
