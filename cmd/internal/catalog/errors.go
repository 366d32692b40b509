package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")

	// ErrFacultyNotFound is returned when a program references a faculty that does not exist.
	ErrFacultyNotFound = fmt.Errorf("%w: faculty", ErrNotFound)

	// ErrFacultyInUse is returned when deleting a faculty that still has programs.
	ErrFacultyInUse = fmt.Errorf("%w: faculty has programs", ErrConflict)
)
