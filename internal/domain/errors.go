package domain

import (
	"fmt"
	"strings"
)

// ValidationError identifies a single field that violated a constraint.
type ValidationError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
}

// ValidationErrors collects every violation found in one input.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields lists the offending field names in order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.Field)
	}
	return out
}

// WarningCode names a data-quality condition.
type WarningCode string

const (
	WarnSalesExceedBarTotal WarningCode = "sales_exceed_bar_total"
	WarnImplausibleHours    WarningCode = "implausible_hours"
)

// DataQualityWarning is a non-fatal signal about suspicious input. Shifts
// carrying warnings are still stored and scored.
type DataQualityWarning struct {
	Code    WarningCode `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}
