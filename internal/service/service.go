// Package service orchestrates shift scoring, storage and leaderboard
// queries on top of a ShiftStore.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/metrics"
	"github.com/Clark-Hu/barscore/internal/repository"
	"github.com/Clark-Hu/barscore/internal/scoring"
)

// ShiftStore is the persistence contract. *repository.ShiftsRepository
// implements it against PostgreSQL.
type ShiftStore interface {
	Create(ctx context.Context, params repository.ShiftCreateParams) (domain.Shift, error)
	GetByID(ctx context.Context, id string) (domain.Shift, error)
	Delete(ctx context.Context, id string) error
	ListByBar(ctx context.Context, barID int64, limit int) ([]domain.Shift, error)
	ListForLeaderboard(ctx context.Context, barID int64, start, end *time.Time) ([]domain.Shift, error)
	ListBarIDs(ctx context.Context) ([]int64, error)
	ListStale(ctx context.Context, barID int64, version string, afterSeq int64, limit int) ([]domain.Shift, error)
	ApplyScores(ctx context.Context, updates []repository.ScoreUpdate) (int64, error)
}

// Options tunes limits and wiring. Zero values fall back to defaults.
type Options struct {
	MinPlausibleHours       float64
	ShiftListDefaultLimit   int
	ShiftListMaxLimit       int
	LeaderboardDefaultLimit int
	LeaderboardMaxLimit     int
	RescoreBatchSize        int
	RescoreConcurrency      int
	Logger                  *zap.Logger
	Metrics                 *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.MinPlausibleHours <= 0 {
		o.MinPlausibleHours = scoring.DefaultMinPlausibleHours
	}
	if o.ShiftListDefaultLimit <= 0 {
		o.ShiftListDefaultLimit = 25
	}
	if o.ShiftListMaxLimit <= 0 {
		o.ShiftListMaxLimit = 200
	}
	if o.LeaderboardDefaultLimit <= 0 {
		o.LeaderboardDefaultLimit = 10
	}
	if o.LeaderboardMaxLimit <= 0 {
		o.LeaderboardMaxLimit = 100
	}
	if o.RescoreBatchSize <= 0 {
		o.RescoreBatchSize = 500
	}
	if o.RescoreConcurrency <= 0 {
		o.RescoreConcurrency = 4
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	store   ShiftStore
	engine  *scoring.Engine
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New wires a Service.
func New(store ShiftStore, engine *scoring.Engine, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:   store,
		engine:  engine,
		opts:    opts,
		logger:  opts.Logger.Named("service"),
		metrics: opts.Metrics,
	}
}

// Engine returns the scoring engine in use.
func (s *Service) Engine() *scoring.Engine {
	return s.engine
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
