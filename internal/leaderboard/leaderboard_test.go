package leaderboard

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Clark-Hu/barscore/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func scored(name string, d int, score float64) domain.Shift {
	s := domain.Shift{ScoreVersion: "v1"}
	s.BartenderName = name
	s.ShiftDate = day(d)
	s.ScoreTotal = &score
	return s
}

func unscored(name string, d int) domain.Shift {
	s := domain.Shift{}
	s.BartenderName = name
	s.ShiftDate = day(d)
	return s
}

func TestAggregate_ScenarioC(t *testing.T) {
	shifts := []domain.Shift{
		scored("Jay", 1, 40),
		scored("Ana", 2, 90),
		scored("Jay", 3, 60),
	}

	got := Aggregate(shifts, 10)
	want := []domain.LeaderboardEntry{
		{BartenderName: "Ana", AvgScore: 90, ShiftsCount: 1, LastShiftDate: day(2), ScoreVersions: []string{"v1"}},
		{BartenderName: "Jay", AvgScore: 50, ShiftsCount: 2, LastShiftDate: day(3), ScoreVersions: []string{"v1"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_ScenarioD_UnscoredShift(t *testing.T) {
	shifts := []domain.Shift{
		scored("Jay", 1, 40),
		unscored("Jay", 5),
		unscored("Sam", 2),
	}

	got := Aggregate(shifts, 10)
	want := []domain.LeaderboardEntry{
		{BartenderName: "Jay", AvgScore: 40, ShiftsCount: 2, LastShiftDate: day(5), ScoreVersions: []string{"v1"}},
		{BartenderName: "Sam", AvgScore: 0, ShiftsCount: 1, LastShiftDate: day(2), ScoreVersions: []string{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_TieBreaks(t *testing.T) {
	shifts := []domain.Shift{
		scored("Zoe", 1, 70),
		scored("Bob", 1, 70),
		scored("Bob", 2, 70),
		scored("Amy", 3, 70),
	}

	got := Aggregate(shifts, -1)
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.BartenderName)
	}
	if diff := cmp.Diff([]string{"Bob", "Amy", "Zoe"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_NamesAreExact(t *testing.T) {
	shifts := []domain.Shift{
		scored("Jay", 1, 10),
		scored("jay", 1, 20),
		scored("Jay ", 1, 30),
	}
	if got := Aggregate(shifts, -1); len(got) != 3 {
		t.Fatalf("Aggregate() produced %d groups, want 3", len(got))
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil, 10)
	if got == nil || len(got) != 0 {
		t.Fatalf("Aggregate(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestAggregate_Truncation(t *testing.T) {
	shifts := []domain.Shift{
		scored("A", 1, 10),
		scored("B", 1, 20),
		scored("C", 1, 30),
		scored("D", 1, 40),
	}

	full := Aggregate(shifts, -1)
	for limit := 0; limit <= 5; limit++ {
		got := Aggregate(shifts, limit)
		wantLen := limit
		if wantLen > len(full) {
			wantLen = len(full)
		}
		if diff := cmp.Diff(full[:wantLen], got); diff != "" {
			t.Fatalf("limit %d mismatch (-want +got):\n%s", limit, diff)
		}
	}
}

func TestAggregate_RandomizedProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	names := []string{"Ana", "Jay", "Sam", "Alex", "Kim", "Lee"}

	for iter := 0; iter < 200; iter++ {
		n := rnd.Intn(40)
		shifts := make([]domain.Shift, 0, n)
		present := make(map[string]bool)
		for i := 0; i < n; i++ {
			name := names[rnd.Intn(len(names))]
			present[name] = true
			if rnd.Intn(5) == 0 {
				shifts = append(shifts, unscored(name, 1+rnd.Intn(28)))
				continue
			}
			// coarse scores so ties on average happen regularly
			shifts = append(shifts, scored(name, 1+rnd.Intn(28), float64(rnd.Intn(5)*25)))
		}

		got := Aggregate(shifts, -1)

		seen := make(map[string]int)
		for _, e := range got {
			seen[e.BartenderName]++
		}
		if len(seen) != len(present) {
			t.Fatalf("iter %d: %d entries for %d bartenders", iter, len(seen), len(present))
		}
		for name, c := range seen {
			if c != 1 || !present[name] {
				t.Fatalf("iter %d: bartender %q appears %d times", iter, name, c)
			}
		}

		if !sort.SliceIsSorted(got, func(i, j int) bool { return less(got[i], got[j]) }) {
			t.Fatalf("iter %d: entries not ordered: %+v", iter, got)
		}

		limit := rnd.Intn(len(names) + 1)
		top := Aggregate(shifts, limit)
		if len(top) > limit {
			t.Fatalf("iter %d: len %d exceeds limit %d", iter, len(top), limit)
		}
		if diff := cmp.Diff(got[:len(top)], top); diff != "" {
			t.Fatalf("iter %d: truncated result is not the prefix (-want +got):\n%s", iter, diff)
		}
	}
}

func TestVersions(t *testing.T) {
	a := scored("Jay", 1, 40)
	b := scored("Ana", 1, 50)
	b.ScoreVersion = "v2"
	c := unscored("Sam", 1)

	got := Versions([]domain.Shift{a, b, c, a})
	if diff := cmp.Diff([]string{"v1", "v2"}, got); diff != "" {
		t.Fatalf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkAggregate(b *testing.B) {
	shifts := make([]domain.Shift, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		shifts = append(shifts, scored(fmt.Sprintf("bartender-%d", i%250), 1+i%28, float64(i%100)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Aggregate(shifts, 10)
	}
}
