// Package leaderboard ranks bartenders by their average shift score.
package leaderboard

import (
	"sort"
	"time"

	"github.com/Clark-Hu/barscore/internal/domain"
)

type group struct {
	name     string
	sum      float64
	scored   int
	count    int
	last     time.Time
	versions map[string]struct{}
}

// Aggregate groups shifts by exact bartender name and ranks the groups by
// average score desc, shift count desc, then name asc. Unscored shifts count
// towards ShiftsCount but not the average; a group without scored shifts
// averages 0. A negative limit keeps every entry.
func Aggregate(shifts []domain.Shift, limit int) []domain.LeaderboardEntry {
	groups := make(map[string]*group)
	order := make([]*group, 0)

	for _, s := range shifts {
		g, ok := groups[s.BartenderName]
		if !ok {
			g = &group{name: s.BartenderName, versions: make(map[string]struct{})}
			groups[s.BartenderName] = g
			order = append(order, g)
		}
		g.count++
		if s.ShiftDate.After(g.last) {
			g.last = s.ShiftDate
		}
		if s.ScoreTotal != nil {
			g.sum += *s.ScoreTotal
			g.scored++
			g.versions[s.ScoreVersion] = struct{}{}
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, g := range order {
		var avg float64
		if g.scored > 0 {
			avg = g.sum / float64(g.scored)
		}
		entries = append(entries, domain.LeaderboardEntry{
			BartenderName: g.name,
			AvgScore:      avg,
			ShiftsCount:   g.count,
			LastShiftDate: g.last,
			ScoreVersions: sortedKeys(g.versions),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})

	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func less(a, b domain.LeaderboardEntry) bool {
	if a.AvgScore != b.AvgScore {
		return a.AvgScore > b.AvgScore
	}
	if a.ShiftsCount != b.ShiftsCount {
		return a.ShiftsCount > b.ShiftsCount
	}
	return a.BartenderName < b.BartenderName
}

// Versions returns the distinct score versions among scored shifts.
func Versions(shifts []domain.Shift) []string {
	set := make(map[string]struct{})
	for _, s := range shifts {
		if s.ScoreTotal != nil {
			set[s.ScoreVersion] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
