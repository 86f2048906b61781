package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateOpenEntry is returned when an insert would leave a user
	// with more than one open entry of the same mode.
	ErrDuplicateOpenEntry = errors.New("user already has an open entry of this mode")

	// ErrInvalidProjectRef and ErrInvalidCategoryRef are returned when a
	// write references a project or category that does not exist.
	ErrInvalidProjectRef  = errors.New("referenced project does not exist")
	ErrInvalidCategoryRef = errors.New("referenced category does not exist")
)
