// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taibuivan/userhub/internal/api"
	"github.com/taibuivan/userhub/internal/platform/cache"
	"github.com/taibuivan/userhub/internal/platform/config"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/media"
	"github.com/taibuivan/userhub/internal/platform/migration"
	pgstore "github.com/taibuivan/userhub/internal/platform/postgres"
	redisstore "github.com/taibuivan/userhub/internal/platform/redis"
	"github.com/taibuivan/userhub/internal/platform/sec"
	"github.com/taibuivan/userhub/internal/users/account"
	"github.com/taibuivan/userhub/internal/users/auth"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closeLog, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLog()

		return serve(cfg, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
}

// serve runs the startup sequence and blocks until shutdown.
//
// # Startup Sequence
//
//  1. Connect to PostgreSQL (pgxpool).
//  2. Connect to Redis.
//  3. Run database migrations (idempotent).
//  4. Connect to the image host.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
func serve(cfg *config.Config, log *slog.Logger) error {
	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("image_backend", cfg.ImageBackend),
	)

	// Root context for startup, so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// ── 1. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 2. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	if !skipMigrations {
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// ── 4. Image Host ─────────────────────────────────────────────────────
	imageHost, err := newImageHost(startupCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to image host: %w", err)
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	store := cache.New(rdb, log)

	var userCache auth.UserCache = auth.NoopUserCache{}
	if cfg.UserCacheEnabled {
		userCache = auth.NewUserCache(store)
	}

	userRepository := auth.NewUserRepository(pool)
	sessions := auth.NewSessionManager(
		auth.NewSessionRepository(store),
		userRepository,
		userCache,
		sec.NewCookieSigner(cfg.SessionSecret, constants.AppName),
		auth.SessionOptions{TTL: cfg.SessionTTL, Secure: !cfg.IsDevelopment()},
	)

	authService := auth.NewService(userRepository, userCache, sec.NewHasher(cfg.BcryptCost))
	accountService := account.NewService(userRepository, userCache, imageHost)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
	}, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Sessions:  sessions,
		Auth:      auth.NewHandler(authService, sessions),
		Account:   account.NewHandler(accountService, sessions, cfg.ImageMaxBytes),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case runErr = <-serverErr:
		log.Error("server startup error", slog.Any("error", runErr))
	}

	log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped cleanly")
	return runErr
}

// newImageHost selects the avatar storage backend from configuration.
func newImageHost(ctx context.Context, cfg *config.Config, log *slog.Logger) (media.Host, error) {
	switch cfg.ImageBackend {
	case "s3":
		return media.NewS3Host(ctx, media.S3Options{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.ImagePublicBaseURL,
		}, log)
	default:
		return media.NewMinioHost(ctx, media.MinioOptions{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			UseSSL:        cfg.MinioUseSSL,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.ImagePublicBaseURL,
		}, log)
	}
}
