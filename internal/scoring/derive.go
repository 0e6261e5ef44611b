// Package scoring turns raw shift input into derived metrics and versioned
// composite scores.
package scoring

import (
	"fmt"

	"github.com/Clark-Hu/barscore/internal/domain"
)

// DefaultMinPlausibleHours is the shortest shift with sales that is not flagged.
const DefaultMinPlausibleHours = 0.25

// Derive computes the derived ratios for an already validated input. Ratios
// with a zero denominator are reported as 0.
func Derive(in domain.RawShiftInput) domain.DerivedMetrics {
	var m domain.DerivedMetrics
	if in.TotalBarSales > 0 {
		m.PctOfBarSales = in.PersonalSalesVolume / in.TotalBarSales
	}
	if in.PersonalSalesVolume > 0 {
		m.TipPct = in.PersonalTips / in.PersonalSalesVolume
	}
	if in.HoursWorked > 0 {
		m.SalesPerHour = in.PersonalSalesVolume / in.HoursWorked
	}
	return m
}

// CheckQuality reports suspicious but storable input.
func CheckQuality(in domain.RawShiftInput, minHours float64) []domain.DataQualityWarning {
	var warnings []domain.DataQualityWarning
	if in.PersonalSalesVolume > in.TotalBarSales {
		warnings = append(warnings, domain.DataQualityWarning{
			Code:    domain.WarnSalesExceedBarTotal,
			Field:   "personalSalesVolume",
			Message: fmt.Sprintf("personal sales %.2f exceed total bar sales %.2f", in.PersonalSalesVolume, in.TotalBarSales),
		})
	}
	if in.PersonalSalesVolume > 0 && in.HoursWorked < minHours {
		warnings = append(warnings, domain.DataQualityWarning{
			Code:    domain.WarnImplausibleHours,
			Field:   "hoursWorked",
			Message: fmt.Sprintf("%.2f hours worked is below the plausible minimum of %.2f", in.HoursWorked, minHours),
		})
	}
	return warnings
}
