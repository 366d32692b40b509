package catalog

import (
	"context"
	"time"
)

// Faculty is a top-level academic unit.
type Faculty struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Program is a study program owned by exactly one faculty.
type Program struct {
	ID        string
	Name      string
	FacultyID string
	CreatedAt time.Time
}

// ProgramPatch is a partial program update; nil fields are left untouched.
type ProgramPatch struct {
	Name      *string
	FacultyID *string
}

// Store is the persistence boundary for reference data.
//
// Lookups by a malformed id report ErrNotFound. Writes that reference a missing
// faculty report ErrFacultyNotFound.
type Store interface {
	CreateFaculty(ctx context.Context, f Faculty) error
	ListFaculties(ctx context.Context) ([]Faculty, error)
	GetFaculty(ctx context.Context, id string) (Faculty, error)
	RenameFaculty(ctx context.Context, id, name string) (Faculty, error)
	DeleteFaculty(ctx context.Context, id string) error

	CreateProgram(ctx context.Context, p Program) error
	ListPrograms(ctx context.Context) ([]Program, error)
	GetProgram(ctx context.Context, id string) (Program, error)
	UpdateProgram(ctx context.Context, id string, p ProgramPatch) (Program, error)
	DeleteProgram(ctx context.Context, id string) error
}
