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

	"github.com/hibiken/asynq"

	"github.com/accounthub/accounthub/internal/app"
	"github.com/accounthub/accounthub/internal/audit"
	"github.com/accounthub/accounthub/internal/denylist"
	"github.com/accounthub/accounthub/internal/identity"
	"github.com/accounthub/accounthub/internal/platform/cache"
	"github.com/accounthub/accounthub/internal/platform/db"
	"github.com/accounthub/accounthub/internal/secrets"
	"github.com/accounthub/accounthub/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Redis only backs the refreshed denylist; the embedded seed still
		// applies without it.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	asynqClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	repo := identity.NewRepository(pool)
	auditService := audit.NewService(audit.NewRepository(pool), logger)
	service := identity.NewService(identity.ServiceConfig{
		Repo:     repo,
		Hasher:   secrets.NewBcryptHasher(0),
		Tokens:   secrets.NewTokenIssuer(cfg.TokenSecret, cfg.InviteTTL, cfg.ResetTTL),
		Notifier: jobs.NewEmailNotifier(asynqClient, "AccountHub"),
		Denylist: denylist.New(redisClient, logger),
		Audit:    auditService,
		Logger:   logger,
		BaseURL:  cfg.BaseURL,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Auth:         identity.AuthMiddleware(service, logger),
		UsersHandler: identity.NewHandler(logger, service),
		AuditHandler: audit.NewHandler(logger, auditService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
