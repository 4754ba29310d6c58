package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyStarted = errors.New("timer already started")
	ErrPastDone       = errors.New("no stage after done")
	ErrClosed         = errors.New("timer closed")
	ErrInvalidRecipe  = errors.New("invalid recipe")
	ErrNotImplemented = errors.New("not implemented")
)
