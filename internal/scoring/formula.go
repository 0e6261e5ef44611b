package scoring

import (
	"math"

	"github.com/Clark-Hu/barscore/internal/domain"
)

// Breakdown term names.
const (
	TermPctOfBarSales = "pct_of_bar_sales"
	TermTipPct        = "tip_pct"
	TermSalesPerHour  = "sales_per_hour"
)

// Input is everything a formula may read. TransactionsCount is carried for
// formulas that want it even when the current one ignores it.
type Input struct {
	Metrics           domain.DerivedMetrics
	TransactionsCount *int
}

// InputFromShift rebuilds a formula input from stored shift data.
func InputFromShift(s domain.Shift) Input {
	return Input{Metrics: s.DerivedMetrics, TransactionsCount: s.TransactionsCount}
}

// Result is a stamped score.
type Result struct {
	Total     float64
	Version   string
	Breakdown domain.Breakdown
}

// Formula is a named, immutable scoring rule. A changed rule gets a new
// Version rather than replacing an existing one.
type Formula interface {
	Version() string
	Score(in Input) Result
}

// V1 weights share of bar sales at 50, tip rate at 30 (capped at 40%) and
// sales per hour at 20 (capped at 150/h). Totals fall in [0, 100].
type V1 struct{}

const (
	v1PctWeight    = 50.0
	v1TipWeight    = 30.0
	v1TipCap       = 0.40
	v1SPHWeight    = 20.0
	v1SPHReference = 150.0
)

// Version implements Formula.
func (V1) Version() string { return "v1" }

// Score implements Formula.
func (f V1) Score(in Input) Result {
	m := in.Metrics

	pct := clamp(m.PctOfBarSales, 0, 1)
	tip := clamp(m.TipPct, 0, v1TipCap) / v1TipCap
	sph := clamp(m.SalesPerHour/v1SPHReference, 0, 1)

	breakdown := domain.Breakdown{
		TermPctOfBarSales: {Value: m.PctOfBarSales, Normalized: pct, Points: v1PctWeight * pct},
		TermTipPct:        {Value: m.TipPct, Normalized: tip, Points: v1TipWeight * tip},
		TermSalesPerHour:  {Value: m.SalesPerHour, Normalized: sph, Points: v1SPHWeight * sph},
	}

	total := breakdown[TermPctOfBarSales].Points +
		breakdown[TermTipPct].Points +
		breakdown[TermSalesPerHour].Points

	return Result{Total: total, Version: f.Version(), Breakdown: breakdown}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
