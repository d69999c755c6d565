package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrEmptyList is returned by flows that need at least one field.
	ErrEmptyList = errors.New("tui: no fields to pick from")
)
