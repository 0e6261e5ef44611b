package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Clark-Hu/barscore/internal/domain"
)

func rawShift(sales, total, tips, hours float64) domain.RawShiftInput {
	return domain.RawShiftInput{
		BarID:               1,
		SpotID:              1,
		BartenderName:       "Jay",
		ShiftDate:           time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC),
		PersonalSalesVolume: sales,
		TotalBarSales:       total,
		PersonalTips:        tips,
		HoursWorked:         hours,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		in   domain.RawShiftInput
		want domain.DerivedMetrics
	}{
		{"typical", rawShift(500, 2000, 100, 5), domain.DerivedMetrics{PctOfBarSales: 0.25, TipPct: 0.20, SalesPerHour: 100}},
		{"zero bar total", rawShift(500, 0, 100, 5), domain.DerivedMetrics{PctOfBarSales: 0, TipPct: 0.20, SalesPerHour: 100}},
		{"zero personal sales", rawShift(0, 2000, 40, 4), domain.DerivedMetrics{PctOfBarSales: 0, TipPct: 0, SalesPerHour: 0}},
		{"everything zero", rawShift(0, 0, 0, 1), domain.DerivedMetrics{}},
		{"sales exceed total", rawShift(300, 200, 30, 3), domain.DerivedMetrics{PctOfBarSales: 1.5, TipPct: 0.1, SalesPerHour: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.in)
			if !approxEqual(got.PctOfBarSales, tt.want.PctOfBarSales) ||
				!approxEqual(got.TipPct, tt.want.TipPct) ||
				!approxEqual(got.SalesPerHour, tt.want.SalesPerHour) {
				t.Fatalf("Derive() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDerive_MonotonicInSales(t *testing.T) {
	prev := Derive(rawShift(0, 5000, 50, 6))
	for sales := 10.0; sales <= 5000; sales += 37.5 {
		cur := Derive(rawShift(sales, 5000, 50, 6))
		if cur.SalesPerHour < prev.SalesPerHour {
			t.Fatalf("sales_per_hour decreased at sales=%v: %v < %v", sales, cur.SalesPerHour, prev.SalesPerHour)
		}
		if cur.PctOfBarSales < prev.PctOfBarSales {
			t.Fatalf("pct_of_bar_sales decreased at sales=%v: %v < %v", sales, cur.PctOfBarSales, prev.PctOfBarSales)
		}
		prev = cur
	}
}

func TestCheckQuality(t *testing.T) {
	tests := []struct {
		name string
		in   domain.RawShiftInput
		want []domain.WarningCode
	}{
		{"clean", rawShift(500, 2000, 100, 5), nil},
		{"sales exceed total", rawShift(2500, 2000, 100, 5), []domain.WarningCode{domain.WarnSalesExceedBarTotal}},
		{"tiny shift with sales", rawShift(500, 2000, 100, 0.1), []domain.WarningCode{domain.WarnImplausibleHours}},
		{"tiny shift without sales", rawShift(0, 2000, 0, 0.1), nil},
		{"both", rawShift(900, 100, 0, 0.05), []domain.WarningCode{domain.WarnSalesExceedBarTotal, domain.WarnImplausibleHours}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckQuality(tt.in, DefaultMinPlausibleHours)
			if len(got) != len(tt.want) {
				t.Fatalf("CheckQuality() returned %d warnings, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range got {
				if w.Code != tt.want[i] {
					t.Fatalf("warning[%d] = %s, want %s", i, w.Code, tt.want[i])
				}
				if w.Message == "" || w.Field == "" {
					t.Fatalf("warning[%d] missing field or message: %+v", i, w)
				}
			}
		})
	}
}

func TestV1_ScenarioA(t *testing.T) {
	in := rawShift(500, 2000, 100, 5)
	res := V1{}.Score(Input{Metrics: Derive(in)})

	want := 12.5 + 15 + 20*(100.0/150.0)
	if !approxEqual(res.Total, want) {
		t.Fatalf("Total = %v, want %v", res.Total, want)
	}
	if math.Round(res.Total*100)/100 != 40.83 {
		t.Fatalf("Total rounded = %v, want 40.83", math.Round(res.Total*100)/100)
	}
	if res.Version != "v1" {
		t.Fatalf("Version = %q, want v1", res.Version)
	}
	if got := res.Breakdown[TermPctOfBarSales].Points; !approxEqual(got, 12.5) {
		t.Fatalf("pct points = %v, want 12.5", got)
	}
	if got := res.Breakdown[TermTipPct].Points; !approxEqual(got, 15) {
		t.Fatalf("tip points = %v, want 15", got)
	}
}

func TestV1_Caps(t *testing.T) {
	tests := []struct {
		name    string
		metrics domain.DerivedMetrics
		want    float64
	}{
		{"all zero", domain.DerivedMetrics{}, 0},
		{"all at cap", domain.DerivedMetrics{PctOfBarSales: 1, TipPct: 0.40, SalesPerHour: 150}, 100},
		{"outliers capped", domain.DerivedMetrics{PctOfBarSales: 1, TipPct: 3, SalesPerHour: 9000}, 100},
		{"pct above one is clamped", domain.DerivedMetrics{PctOfBarSales: 1.5}, 50},
		{"tip only", domain.DerivedMetrics{TipPct: 0.20}, 15},
		{"sph only", domain.DerivedMetrics{SalesPerHour: 75}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := V1{}.Score(Input{Metrics: tt.metrics}).Total
			if !approxEqual(got, tt.want) {
				t.Fatalf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestV1_IgnoresTransactionsCount(t *testing.T) {
	m := Derive(rawShift(500, 2000, 100, 5))
	count := 42
	without := V1{}.Score(Input{Metrics: m})
	with := V1{}.Score(Input{Metrics: m, TransactionsCount: &count})
	if math.Float64bits(without.Total) != math.Float64bits(with.Total) {
		t.Fatalf("transactions count changed v1 score: %v vs %v", without.Total, with.Total)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine, err := NewDefaultEngine("")
	if err != nil {
		t.Fatalf("NewDefaultEngine: %v", err)
	}
	in := Input{Metrics: Derive(rawShift(713.37, 4120.5, 131.9, 6.75))}
	first := engine.Score(in)
	for i := 0; i < 100; i++ {
		again := engine.Score(in)
		if math.Float64bits(first.Total) != math.Float64bits(again.Total) {
			t.Fatalf("run %d: score %v differs from %v", i, again.Total, first.Total)
		}
		if again.Version != first.Version {
			t.Fatalf("run %d: version %q differs from %q", i, again.Version, first.Version)
		}
	}
}

type flatFormula struct {
	version string
	points  float64
}

func (f flatFormula) Version() string { return f.version }

func (f flatFormula) Score(Input) Result {
	return Result{Total: f.points, Version: f.version}
}

func TestEngine_Registry(t *testing.T) {
	engine, err := NewEngine("v1", V1{}, flatFormula{version: "flat", points: 7})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if engine.Current() != "v1" {
		t.Fatalf("Current() = %q, want v1", engine.Current())
	}
	if got := engine.Versions(); len(got) != 2 || got[0] != "flat" || got[1] != "v1" {
		t.Fatalf("Versions() = %v", got)
	}

	res, err := engine.ScoreWith("flat", Input{})
	if err != nil {
		t.Fatalf("ScoreWith(flat): %v", err)
	}
	if res.Total != 7 || res.Version != "flat" {
		t.Fatalf("ScoreWith(flat) = %+v", res)
	}

	if _, err := engine.ScoreWith("v9", Input{}); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("ScoreWith(v9) error = %v, want ErrUnknownVersion", err)
	}
	if _, err := NewEngine("v1", V1{}, V1{}); !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("duplicate registration error = %v, want ErrDuplicateVersion", err)
	}
	if _, err := NewEngine("v2", V1{}); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("unknown current error = %v, want ErrUnknownVersion", err)
	}
}

func FuzzV1Bounded(f *testing.F) {
	f.Add(500.0, 2000.0, 100.0, 5.0)
	f.Add(0.0, 0.0, 0.0, 0.01)
	f.Add(1e9, 1.0, 1e9, 1e-6)
	f.Add(10.0, 10.0, 100.0, 24.0)

	f.Fuzz(func(t *testing.T, sales, total, tips, hours float64) {
		for _, v := range []float64{sales, total, tips, hours} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return
			}
		}
		if sales < 0 || total < 0 || tips < 0 || hours <= 0 {
			return
		}
		res := V1{}.Score(Input{Metrics: Derive(rawShift(sales, total, tips, hours))})
		if math.IsNaN(res.Total) || res.Total < 0 || res.Total > 100 {
			t.Fatalf("score %v out of [0,100] for sales=%v total=%v tips=%v hours=%v", res.Total, sales, total, tips, hours)
		}
	})
}
