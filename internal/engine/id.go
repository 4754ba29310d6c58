package engine

import "github.com/google/uuid"

// newRunID returns a fresh identifier for a countdown run.
func newRunID() string {
	return uuid.NewString()
}

// shortID trims an ID for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
