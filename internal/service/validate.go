package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/scoring"
)

const maxBartenderNameLen = 80

// Validate checks the shape of a raw shift. It does not check that the bar
// or spot exist.
func Validate(in domain.RawShiftInput) domain.ValidationErrors {
	var errs domain.ValidationErrors
	add := func(field, constraint string) {
		errs = append(errs, &domain.ValidationError{Field: field, Constraint: constraint})
	}

	if in.BarID <= 0 {
		add("barId", "is required")
	}
	if in.SpotID <= 0 {
		add("spotId", "is required")
	}

	name := strings.TrimSpace(in.BartenderName)
	switch {
	case name == "":
		add("bartenderName", "is required")
	case utf8.RuneCountInString(in.BartenderName) > maxBartenderNameLen:
		add("bartenderName", "must be at most 80 characters")
	}

	if in.ShiftDate.IsZero() {
		add("shiftDate", "is required")
	}

	amount := func(field string, v float64) {
		switch {
		case !finite(v):
			add(field, "must be a finite number")
		case v < 0:
			add(field, "must be non-negative")
		}
	}
	amount("personalSalesVolume", in.PersonalSalesVolume)
	amount("totalBarSales", in.TotalBarSales)
	amount("personalTips", in.PersonalTips)

	switch {
	case !finite(in.HoursWorked):
		add("hoursWorked", "must be a finite number")
	case in.HoursWorked <= 0:
		add("hoursWorked", "must be positive")
	}

	if in.TransactionsCount != nil && *in.TransactionsCount < 0 {
		add("transactionsCount", "must be non-negative")
	}

	if len(errs) == 0 {
		// Individually valid amounts can still overflow a ratio, e.g. sales
		// over a subnormal hoursWorked. Such a row cannot be scored or encoded.
		m := scoring.Derive(in)
		if !finite(m.PctOfBarSales) {
			add("totalBarSales", "is too small relative to personalSalesVolume")
		}
		if !finite(m.TipPct) {
			add("personalSalesVolume", "is too small relative to personalTips")
		}
		if !finite(m.SalesPerHour) {
			add("hoursWorked", "is too small relative to personalSalesVolume")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
