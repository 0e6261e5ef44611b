package scoring

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownVersion is returned when no formula is registered for a version.
	ErrUnknownVersion = errors.New("scoring: unknown formula version")
	// ErrDuplicateVersion is returned when two formulas claim the same version.
	ErrDuplicateVersion = errors.New("scoring: duplicate formula version")
)

// DefaultVersion is the formula new shifts are scored with unless configured otherwise.
const DefaultVersion = "v1"

// Engine holds the closed set of known formulas and the one used for new shifts.
type Engine struct {
	formulas map[string]Formula
	current  string
}

// NewEngine registers formulas and selects current as the active version.
func NewEngine(current string, formulas ...Formula) (*Engine, error) {
	e := &Engine{formulas: make(map[string]Formula, len(formulas))}
	for _, f := range formulas {
		v := f.Version()
		if v == "" {
			return nil, fmt.Errorf("scoring: formula with empty version")
		}
		if _, dup := e.formulas[v]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, v)
		}
		e.formulas[v] = f
	}
	if _, ok := e.formulas[current]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, current)
	}
	e.current = current
	return e, nil
}

// NewDefaultEngine returns an engine knowing every built-in formula, scoring with current.
func NewDefaultEngine(current string) (*Engine, error) {
	if current == "" {
		current = DefaultVersion
	}
	return NewEngine(current, V1{})
}

// Current returns the active version.
func (e *Engine) Current() string {
	return e.current
}

// Has reports whether version is registered.
func (e *Engine) Has(version string) bool {
	_, ok := e.formulas[version]
	return ok
}

// Versions lists registered versions in lexical order.
func (e *Engine) Versions() []string {
	out := make([]string, 0, len(e.formulas))
	for v := range e.formulas {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Score applies the active formula.
func (e *Engine) Score(in Input) Result {
	return e.formulas[e.current].Score(in)
}

// ScoreWith applies the formula registered under version.
func (e *Engine) ScoreWith(version string, in Input) (Result, error) {
	f, ok := e.formulas[version]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return f.Score(in), nil
}
