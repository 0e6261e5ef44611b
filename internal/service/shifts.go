package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/repository"
	"github.com/Clark-Hu/barscore/internal/scoring"
)

// CreateOptions adjusts how a submission is stored.
type CreateOptions struct {
	// SkipScoring stores the shift with a null score and no version.
	SkipScoring bool
}

// CreateResult is the stored shift plus any data-quality warnings it raised.
type CreateResult struct {
	Shift    domain.Shift
	Warnings []domain.DataQualityWarning
}

// ScoreAndStore validates, derives, scores and persists one shift. A
// domain.ValidationErrors is returned for malformed input; store failures are
// returned wrapped.
func (s *Service) ScoreAndStore(ctx context.Context, in domain.RawShiftInput, opts CreateOptions) (CreateResult, error) {
	if errs := Validate(in); len(errs) > 0 {
		for _, e := range errs {
			s.metrics.ValidationFailed(e.Field)
		}
		return CreateResult{}, errs
	}
	in.ShiftDate = domain.CalendarDate(in.ShiftDate)

	derived := scoring.Derive(in)
	warnings := scoring.CheckQuality(in, s.opts.MinPlausibleHours)

	params := repository.ShiftCreateParams{
		Input:   in,
		Metrics: derived,
	}
	for _, w := range warnings {
		params.QualityFlags = append(params.QualityFlags, w.Code)
	}
	if !opts.SkipScoring {
		res := s.engine.Score(scoring.Input{Metrics: derived, TransactionsCount: in.TransactionsCount})
		total := res.Total
		params.ScoreTotal = &total
		params.ScoreVersion = res.Version
		params.Breakdown = res.Breakdown
	}

	shift, err := s.store.Create(ctx, params)
	if err != nil {
		return CreateResult{}, fmt.Errorf("store shift: %w", err)
	}

	for _, w := range warnings {
		s.metrics.QualityWarning(string(w.Code))
		s.logger.Warn("shift data quality warning",
			zap.String("shift_id", shift.ID),
			zap.Int64("bar_id", shift.BarID),
			zap.String("code", string(w.Code)),
			zap.String("detail", w.Message),
		)
	}
	if shift.Scored() {
		s.metrics.ShiftScored(shift.ScoreVersion)
	} else {
		s.metrics.ShiftUnscored()
	}
	s.logger.Debug("shift stored",
		zap.String("shift_id", shift.ID),
		zap.Int64("bar_id", shift.BarID),
		zap.String("score_version", shift.ScoreVersion),
	)

	return CreateResult{Shift: shift, Warnings: warnings}, nil
}

// RecentShifts lists a bar's shifts newest first. An unknown bar yields an
// empty slice.
func (s *Service) RecentShifts(ctx context.Context, barID int64, limit int) ([]domain.Shift, error) {
	if barID <= 0 {
		return nil, domain.ValidationErrors{{Field: "barId", Constraint: "is required"}}
	}
	limit = clampLimit(limit, s.opts.ShiftListDefaultLimit, s.opts.ShiftListMaxLimit)
	shifts, err := s.store.ListByBar(ctx, barID, limit)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// GetShift fetches one shift. repository.ErrNotFound is passed through.
func (s *Service) GetShift(ctx context.Context, id string) (domain.Shift, error) {
	return s.store.GetByID(ctx, id)
}

// DeleteShift removes one shift. repository.ErrNotFound is passed through.
func (s *Service) DeleteShift(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("shift deleted", zap.String("shift_id", id))
	return nil
}
