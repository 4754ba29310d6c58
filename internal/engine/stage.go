package engine

import "fmt"

// StageKind tags a Stage.
type StageKind int

const (
	// StageGetReady is the initial, restartable state. No deadline.
	StageGetReady StageKind = iota
	// StageStep means a step is counting down.
	StageStep
	// StageDone is terminal. No deadline.
	StageDone
)

// String returns a human-readable stage kind.
func (k StageKind) String() string {
	switch k {
	case StageGetReady:
		return "get_ready"
	case StageStep:
		return "step"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stage is the engine's position in the sequence. Index is only
// meaningful for StageStep.
type Stage struct {
	Kind  StageKind
	Index int
}

// GetReady returns the initial stage.
func GetReady() Stage { return Stage{Kind: StageGetReady} }

// StepAt returns the stage for step i (0-based).
func StepAt(i int) Stage { return Stage{Kind: StageStep, Index: i} }

// Done returns the terminal stage.
func Done() Stage { return Stage{Kind: StageDone} }

// IsStep reports whether s is a counting-down step.
func (s Stage) IsStep() bool { return s.Kind == StageStep }

// String returns "get_ready", "step(2)" or "done".
func (s Stage) String() string {
	if s.Kind == StageStep {
		return fmt.Sprintf("step(%d)", s.Index)
	}
	return s.Kind.String()
}

// nextStage returns the successor of s in a sequence of n steps. Done has
// no successor.
func nextStage(s Stage, n int) (Stage, bool) {
	switch s.Kind {
	case StageGetReady:
		if n == 0 {
			return Done(), true
		}
		return StepAt(0), true
	case StageStep:
		if s.Index+1 < n {
			return StepAt(s.Index + 1), true
		}
		return Done(), true
	default:
		return Stage{}, false
	}
}
