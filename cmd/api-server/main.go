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

	"github.com/hackgods/hospital-appointment-scheduling/internal/api"
	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduling/internal/config"
	"github.com/hackgods/hospital-appointment-scheduling/internal/db"
	"github.com/hackgods/hospital-appointment-scheduling/internal/logging"
	"github.com/hackgods/hospital-appointment-scheduling/internal/patient"
	redisclient "github.com/hackgods/hospital-appointment-scheduling/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDev()).With().Str("service", "api-server").Logger()
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Str("version", version).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	applied, err := db.NewMigrator(pgPool, logger).Up(rootCtx)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	logger.Info().Int("applied", applied).Msg("schema up to date")

	// Connect Redis
	redisCtx, cancelRedis := context.WithTimeout(rootCtx, 5*time.Second)
	rdb, err := redisclient.NewRedisClient(redisCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	cancelRedis()
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	repo := appointment.NewPgRepository(pgPool)
	scheduler := appointment.NewService(repo, redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL), logger)
	queries := appointment.NewQueryService(repo, cfg.DefaultPageSize)
	patients := patient.NewService(
		patient.NewPgRepository(pgPool),
		patient.NewPasswordHasher(0),
		patient.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		logger,
	)

	handler := api.NewRouter(api.RouterConfig{
		Scheduler:   scheduler,
		Queries:     queries,
		Patients:    patients,
		RateLimiter: redisclient.NewRedisRateLimiter(rdb, "booking", cfg.BookingRateLimit, cfg.BookingRateWindow),
		Postgres:    pgPool,
		Redis: api.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
		Logger:  logger,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("api-server stopped")
}
