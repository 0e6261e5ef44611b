package domain

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// RawShiftInput is the operator-entered payload for a single shift.
type RawShiftInput struct {
	BarID               int64
	SpotID              int64
	BartenderName       string
	ShiftDate           time.Time
	PersonalSalesVolume float64
	TotalBarSales       float64
	PersonalTips        float64
	HoursWorked         float64
	TransactionsCount   *int
}

// DerivedMetrics holds the ratios computed from a RawShiftInput.
type DerivedMetrics struct {
	PctOfBarSales float64
	TipPct        float64
	SalesPerHour  float64
}

// ScoreComponent describes one term of a composite score.
type ScoreComponent struct {
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
	Points     float64 `json:"points"`
}

// Breakdown maps formula term names to their contribution.
type Breakdown map[string]ScoreComponent

// Shift is a persisted, scored shift record.
type Shift struct {
	ID  string
	Seq int64
	RawShiftInput
	DerivedMetrics
	ScoreTotal   *float64
	ScoreVersion string
	Breakdown    Breakdown
	QualityFlags []WarningCode
	CreatedAt    time.Time
}

// Scored reports whether the shift carries a score.
func (s Shift) Scored() bool {
	return s.ScoreTotal != nil
}

// CalendarDate strips the time-of-day from t while keeping its calendar day.
// Shift dates are bar-local days, so no timezone conversion happens here.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}
