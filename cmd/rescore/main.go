// Command rescore rewrites stored shift scores with a formula version. It is
// the only way historical scores change.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/barscore/internal/config"
	"github.com/Clark-Hu/barscore/internal/logging"
	"github.com/Clark-Hu/barscore/internal/repository"
	"github.com/Clark-Hu/barscore/internal/scoring"
	"github.com/Clark-Hu/barscore/internal/service"
	"github.com/Clark-Hu/barscore/internal/store"
)

func main() {
	version := flag.String("version", "", "target formula version (defaults to SCORE_VERSION)")
	barID := flag.Int64("bar", 0, "restrict the pass to one bar id")
	flag.Parse()

	if err := run(*version, *barID); err != nil {
		fmt.Fprintf(os.Stderr, "rescore: %v\n", err)
		os.Exit(1)
	}
}

func run(version string, barID int64) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               1,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	engine, err := scoring.NewDefaultEngine(cfg.ScoreVersion)
	if err != nil {
		return fmt.Errorf("init scoring engine: %w", err)
	}

	svc := service.New(repository.New(st).Shifts, engine, service.Options{
		RescoreBatchSize:   cfg.RescoreBatchSize,
		RescoreConcurrency: cfg.RescoreConcurrency,
		Logger:             logger,
	})

	req := service.RescoreRequest{Version: version}
	if barID != 0 {
		req.BarID = &barID
	}

	start := time.Now()
	report, err := svc.Rescore(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("version=%s bars=%d examined=%d rescored=%d took=%s\n",
		report.Version, report.Bars, report.Examined, report.Rescored, time.Since(start).Round(time.Millisecond))
	return nil
}
