package store

import "errors"

// Common registry errors.
var (
	// ErrTaskNotFound is returned when no task with the given ID exists.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists is returned when adding a task whose ID is already registered.
	ErrTaskExists = errors.New("task already registered")
)
