package domain

import "context"

// RecipeSource provides recipes. Implementations can be in-memory
// (built-in templates) or file-backed.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
}

// Announcer renders the audible side of a stage transition. Both calls
// may block until rendering finishes; callers treat failures as
// best-effort.
type Announcer interface {
	// PlayCue plays the short completion sound.
	PlayCue(ctx context.Context) error
	// Speak says the given label.
	Speak(ctx context.Context, text string) error
}

// StartNotifier is told when a run begins. Used for external bookkeeping
// such as the run history.
type StartNotifier interface {
	RecipeStarted(ctx context.Context, run RunStart) error
}

// HistoryStore lists recorded runs, newest first.
type HistoryStore interface {
	StartNotifier
	Recent(ctx context.Context, limit int) ([]RunStart, error)
}

// CommandParser converts raw user input (typed or spoken) into a command.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Command, error)
}
