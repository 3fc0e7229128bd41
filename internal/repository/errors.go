package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateTitle is returned when another task already uses the title
	ErrDuplicateTitle = errors.New("task title already exists")

	// ErrVersionMismatch is returned when a versioned update finds a newer version stored
	ErrVersionMismatch = errors.New("task version mismatch")

	// ErrDuplicateUser is returned when the username or email is taken
	ErrDuplicateUser = errors.New("user already exists")
)
