package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/repository"
	"github.com/Clark-Hu/barscore/internal/scoring"
)

// RescoreRequest selects the target formula and optionally a single bar.
type RescoreRequest struct {
	// Version defaults to the engine's current version.
	Version string
	BarID   *int64
}

// RescoreReport summarises a rescoring pass.
type RescoreReport struct {
	Version  string
	Bars     int
	Examined int64
	Rescored int64
}

// Rescore rewrites the score stamp of every scored shift whose version
// differs from the target. It never runs implicitly. Shifts stored without a
// score are left untouched. Each page is committed atomically, so an
// interrupted pass leaves every shift either fully old or fully new.
func (s *Service) Rescore(ctx context.Context, req RescoreRequest) (RescoreReport, error) {
	version := req.Version
	if version == "" {
		version = s.engine.Current()
	}
	if !s.engine.Has(version) {
		return RescoreReport{}, domain.ValidationErrors{{Field: "version", Constraint: "is not a known formula version"}}
	}

	var bars []int64
	if req.BarID != nil {
		if *req.BarID <= 0 {
			return RescoreReport{}, domain.ValidationErrors{{Field: "barId", Constraint: "must be positive"}}
		}
		bars = []int64{*req.BarID}
	} else {
		ids, err := s.store.ListBarIDs(ctx)
		if err != nil {
			return RescoreReport{}, fmt.Errorf("list bars: %w", err)
		}
		bars = ids
	}

	var examined, rescored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.RescoreConcurrency)
	for _, barID := range bars {
		barID := barID
		g.Go(func() error {
			e, r, err := s.rescoreBar(gctx, barID, version)
			examined.Add(e)
			rescored.Add(r)
			if err != nil {
				return fmt.Errorf("rescore bar %d: %w", barID, err)
			}
			return nil
		})
	}
	err := g.Wait()

	report := RescoreReport{
		Version:  version,
		Bars:     len(bars),
		Examined: examined.Load(),
		Rescored: rescored.Load(),
	}
	s.metrics.Rescored(version, report.Rescored)
	s.logger.Info("rescore finished",
		zap.String("version", version),
		zap.Int("bars", report.Bars),
		zap.Int64("examined", report.Examined),
		zap.Int64("rescored", report.Rescored),
		zap.Error(err),
	)
	if err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) rescoreBar(ctx context.Context, barID int64, version string) (int64, int64, error) {
	var examined, rescored int64
	var afterSeq int64
	for {
		page, err := s.store.ListStale(ctx, barID, version, afterSeq, s.opts.RescoreBatchSize)
		if err != nil {
			return examined, rescored, err
		}
		if len(page) == 0 {
			return examined, rescored, nil
		}

		updates := make([]repository.ScoreUpdate, 0, len(page))
		for _, shift := range page {
			res, err := s.engine.ScoreWith(version, scoring.InputFromShift(shift))
			if err != nil {
				return examined, rescored, err
			}
			updates = append(updates, repository.ScoreUpdate{
				ID:          shift.ID,
				FromVersion: shift.ScoreVersion,
				Total:       res.Total,
				Version:     res.Version,
				Breakdown:   res.Breakdown,
			})
			if shift.Seq > afterSeq {
				afterSeq = shift.Seq
			}
		}
		examined += int64(len(page))

		n, err := s.store.ApplyScores(ctx, updates)
		if err != nil {
			return examined, rescored, err
		}
		rescored += n

		if len(page) < s.opts.RescoreBatchSize {
			return examined, rescored, nil
		}
	}
}
