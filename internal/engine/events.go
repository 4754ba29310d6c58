package engine

import (
	"math"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/domain"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStage     EventType = "stage"
	EventProgress  EventType = "progress"
	EventCancelled EventType = "cancelled"
)

// Event is an engine update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	At       time.Time
}

// Snapshot is the observable state of the engine at one instant.
type Snapshot struct {
	RunID     string
	Stage     Stage
	StepCount int
	// Kind and Duration describe the active step; zero outside StageStep.
	Kind     domain.StepKind
	Duration time.Duration
	// Deadline is zero when the stage has no deadline.
	Deadline  time.Time
	Remaining time.Duration
	Progress  float64
}

// HasDeadline reports whether a step is counting down.
func (s Snapshot) HasDeadline() bool { return !s.Deadline.IsZero() }

// RemainingSeconds is the whole-second countdown for display: the floor
// of the remaining time, never negative.
func (s Snapshot) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int(math.Floor(s.Remaining.Seconds()))
}

// Label is the human-readable name of the stage.
func (s Snapshot) Label() string {
	switch s.Stage.Kind {
	case StageStep:
		return s.Kind.String()
	case StageDone:
		return "Done"
	default:
		return "Get ready"
	}
}

// clampFraction pins f to [0,1].
func clampFraction(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
