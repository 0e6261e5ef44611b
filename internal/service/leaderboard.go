package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/leaderboard"
)

// LeaderboardQuery selects a bar and an optional inclusive date window.
type LeaderboardQuery struct {
	BarID     int64
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Leaderboard ranks the bar's bartenders over the window. Scores computed by
// different formula versions are reported through MixedVersions.
func (s *Service) Leaderboard(ctx context.Context, q LeaderboardQuery) (domain.Leaderboard, error) {
	var errs domain.ValidationErrors
	if q.BarID <= 0 {
		errs = append(errs, &domain.ValidationError{Field: "barId", Constraint: "is required"})
	}
	if q.StartDate != nil {
		d := domain.CalendarDate(*q.StartDate)
		q.StartDate = &d
	}
	if q.EndDate != nil {
		d := domain.CalendarDate(*q.EndDate)
		q.EndDate = &d
	}
	if q.StartDate != nil && q.EndDate != nil && q.StartDate.After(*q.EndDate) {
		errs = append(errs, &domain.ValidationError{Field: "startDate", Constraint: "must not be after endDate"})
	}
	if len(errs) > 0 {
		return domain.Leaderboard{}, errs
	}
	limit := clampLimit(q.Limit, s.opts.LeaderboardDefaultLimit, s.opts.LeaderboardMaxLimit)

	start := time.Now()
	shifts, err := s.store.ListForLeaderboard(ctx, q.BarID, q.StartDate, q.EndDate)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("read leaderboard shifts: %w", err)
	}

	versions := leaderboard.Versions(shifts)
	board := domain.Leaderboard{
		BarID:         q.BarID,
		StartDate:     q.StartDate,
		EndDate:       q.EndDate,
		ScoreVersions: versions,
		MixedVersions: len(versions) > 1,
		Entries:       leaderboard.Aggregate(shifts, limit),
	}
	s.metrics.ObserveLeaderboard(time.Since(start), len(shifts))

	if board.MixedVersions {
		s.logger.Warn("leaderboard mixes score versions",
			zap.Int64("bar_id", q.BarID),
			zap.Strings("versions", versions),
		)
	}
	return board, nil
}
