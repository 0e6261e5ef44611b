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

	"go.uber.org/zap"

	"github.com/Clark-Hu/barscore/db"
	"github.com/Clark-Hu/barscore/internal/config"
	httpserver "github.com/Clark-Hu/barscore/internal/http"
	"github.com/Clark-Hu/barscore/internal/logging"
	"github.com/Clark-Hu/barscore/internal/metrics"
	"github.com/Clark-Hu/barscore/internal/repository"
	"github.com/Clark-Hu/barscore/internal/scoring"
	"github.com/Clark-Hu/barscore/internal/service"
	"github.com/Clark-Hu/barscore/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "barscore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err := st.Migrate(dbCtx, db.Migrations, "migrations"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	engine, err := scoring.NewDefaultEngine(cfg.ScoreVersion)
	if err != nil {
		return fmt.Errorf("init scoring engine: %w", err)
	}

	m := metrics.New()
	m.RegisterPool(st)

	repo := repository.New(st)
	svc := service.New(repo.Shifts, engine, service.Options{
		MinPlausibleHours:       cfg.MinPlausibleHours,
		ShiftListDefaultLimit:   cfg.ShiftListDefaultLimit,
		ShiftListMaxLimit:       cfg.ShiftListMaxLimit,
		LeaderboardDefaultLimit: cfg.LeaderboardDefaultLimit,
		LeaderboardMaxLimit:     cfg.LeaderboardMaxLimit,
		RescoreBatchSize:        cfg.RescoreBatchSize,
		RescoreConcurrency:      cfg.RescoreConcurrency,
		Logger:                  logger,
		Metrics:                 m,
	})
	server := httpserver.New(cfg, st, svc, m, logger)

	logger.Info("starting",
		zap.String("port", cfg.Port),
		zap.String("score_version", engine.Current()),
		zap.Strings("known_versions", engine.Versions()),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var serveErr error
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("stopped")
	return serveErr
}
