// @title                       SkillHub Client Registry API
// @version                     1.0
// @description                 Client registry, authentication and administration for SkillHub.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillhub/client-registry/internal/api"
	"github.com/skillhub/client-registry/internal/core/ports"
	"github.com/skillhub/client-registry/internal/core/service"
	"github.com/skillhub/client-registry/internal/infrastructure/queue"
	"github.com/skillhub/client-registry/internal/pkg/config"
	"github.com/skillhub/client-registry/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "client-registry: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// --- Config ---
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// --- Logger ---
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "client-registry",
		Env:     cfg.Env,
	})
	log.Info().
		Str("port", cfg.Port).
		Str("kv_backend", cfg.KV.Backend).
		Str("kv_namespace", cfg.KV.Namespace).
		Dur("token_ttl", cfg.TokenTTL).
		Int("login_workers", cfg.LoginWorkers).
		Msg("configuration loaded")

	// --- Storage ---
	store, err := openStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	// --- Services ---
	clients := service.NewClientStore(store.KV, logger.Component("client_store"))
	recorder := queue.NewLoginRecorder(cfg.LoginWorkers, clients, logger.Component("login_recorder"))
	authSvc := service.NewAuthService(clients, store.KV, recorder, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	adminSvc := service.NewAdminService(clients, logger.Component("admin"))

	if cfg.Admin.Seed {
		admin, err := authSvc.EnsureDefaultAdmin(ctx, ports.AdminSeed{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("seed default admin: %w", err)
		}
		log.Info().Str("client_id", admin.ID).Msg("admin account ready")
	}

	// --- Router ---
	router := api.NewRouter(api.Dependencies{
		Clients:     clients,
		Auth:        authSvc,
		Admin:       adminSvc,
		Idempotency: store.Idempotency,
		Health:      store.Health,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger.Component("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	recorder.Start(gCtx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
