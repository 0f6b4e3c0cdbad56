package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConditionFailed is returned when a guarded update matched an existing row
	// whose current state did not satisfy the guard.
	ErrConditionFailed = errors.New("entity not in expected state")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")
)
