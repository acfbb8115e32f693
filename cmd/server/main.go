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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/config"
	"github.com/rise171/system-control-defects/internal/database"
	"github.com/rise171/system-control-defects/internal/handlers"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
	"github.com/rise171/system-control-defects/internal/routes"
	"github.com/rise171/system-control-defects/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped",
			"event", "server_failed",
			"module", "cmd/server",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)
	logger.Info("configuration loaded", "event", "config_loaded", "module", "cmd/server", "config", cfg.String())

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := database.SeedAdmin(ctx, db, cfg.Admin, logger); err != nil {
		return err
	}

	tokens, err := auth.NewTokens(auth.TokenOptions{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger)
	svc := service.New(service.Deps{
		Store:      repository.New(db),
		Policy:     policy.New(policy.Mode(cfg.Auth.PolicyMode)),
		Tokens:     tokens,
		Notifier:   hub,
		Logger:     logger,
		SessionTTL: cfg.Auth.SessionCacheTTL,
	})
	go svc.Sessions.Run(ctx, cfg.Auth.SessionCacheTTL)
	ginRoutes := routes.SetupRoutes(handlers.New(svc, hub, logger), routes.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Sessions:    svc.Sessions,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           ginRoutes,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"event", "http_server_starting",
			"module", "cmd/server",
			"addr", cfg.Server.Address,
			"authz_mode", cfg.Auth.PolicyMode,
			"db_driver", cfg.Database.Driver,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http server stopping", "event", "http_server_stopping", "module", "cmd/server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
