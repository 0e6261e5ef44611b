package domain

import "time"

// LeaderboardEntry aggregates the shifts of one bartender.
type LeaderboardEntry struct {
	BartenderName string
	AvgScore      float64
	ShiftsCount   int
	LastShiftDate time.Time
	ScoreVersions []string
}

// Leaderboard is the ranked result for a bar and optional date window.
type Leaderboard struct {
	BarID         int64
	StartDate     *time.Time
	EndDate       *time.Time
	ScoreVersions []string
	MixedVersions bool
	Entries       []LeaderboardEntry
}
