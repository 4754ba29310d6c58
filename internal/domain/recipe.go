// Package domain defines the core types and interfaces for the brew timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Recipe is an ordered list of brewing steps.
type Recipe struct {
	ID       string
	Name     string
	Notes    string
	Favorite bool // pinned recipes are listed first
	Steps    []Step
}

// TotalDuration returns the sum of all step durations.
func (r *Recipe) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range r.Steps {
		total += s.Duration
	}
	return total
}

// Summary returns the lightweight listing view of the recipe.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:        r.ID,
		Name:      r.Name,
		Favorite:  r.Favorite,
		StepCount: len(r.Steps),
		Total:     r.TotalDuration(),
	}
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID        string
	Name      string
	Favorite  bool
	StepCount int
	Total     time.Duration
}

// Step is one timed unit of a recipe. Duration may be zero.
type Step struct {
	Kind     StepKind
	Duration time.Duration
	Notes    string
}

// StepKind is what the brewer does during a step.
type StepKind int

const (
	StepPour StepKind = iota
	StepStir
	StepSteep
	StepFlip
	StepPlunge
)

// StepKinds lists every kind in display order.
var StepKinds = []StepKind{StepPour, StepStir, StepSteep, StepFlip, StepPlunge}

// String returns the human-readable label, which is also what gets spoken.
func (k StepKind) String() string {
	switch k {
	case StepPour:
		return "Pour"
	case StepStir:
		return "Stir"
	case StepSteep:
		return "Steep"
	case StepFlip:
		return "Flip"
	case StepPlunge:
		return "Plunge"
	default:
		return "Unknown"
	}
}

// ParseStepKind converts a case-insensitive label ("pour", "Stir") to a StepKind.
func ParseStepKind(s string) (StepKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range StepKinds {
		if strings.ToLower(k.String()) == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown step kind %q", ErrInvalidRecipe, s)
}

// RunStart describes a countdown run that has just begun. It is handed to
// the StartNotifier for bookkeeping.
type RunStart struct {
	RunID      string
	RecipeID   string
	RecipeName string
	StepCount  int
	Total      time.Duration
	StartedAt  time.Time
}
