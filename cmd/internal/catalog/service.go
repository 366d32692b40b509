package catalog

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"campus/cmd/identity/ids"
)

const defaultMaxNameLen = 200

// Service validates and persists faculties and programs.
type Service struct {
	store      Store
	maxNameLen int
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service) error

// WithMaxNameLen caps faculty and program names, counted in runes.
func WithMaxNameLen(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return ErrInvalidInput
		}
		s.maxNameLen = n
		return nil
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return ErrInvalidInput
		}
		s.now = now
		return nil
	}
}

// NewService constructs a Service with safe defaults.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrInvalidInput
	}
	s := &Service{
		store:      store,
		maxNameLen: defaultMaxNameLen,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CreateFaculty stores a new faculty named name.
func (s *Service) CreateFaculty(ctx context.Context, name string) (Faculty, error) {
	name, err := s.cleanName(name)
	if err != nil {
		return Faculty{}, err
	}
	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return Faculty{}, err
	}

	f := Faculty{ID: id, Name: name, CreatedAt: now}
	if err := s.store.CreateFaculty(ctx, f); err != nil {
		return Faculty{}, err
	}
	return f, nil
}

// ListFaculties returns every faculty, oldest first.
func (s *Service) ListFaculties(ctx context.Context) ([]Faculty, error) {
	return s.store.ListFaculties(ctx)
}

// GetFaculty returns one faculty.
func (s *Service) GetFaculty(ctx context.Context, id string) (Faculty, error) {
	if !ids.Valid(id) {
		return Faculty{}, ErrNotFound
	}
	return s.store.GetFaculty(ctx, id)
}

// RenameFaculty changes a faculty name.
func (s *Service) RenameFaculty(ctx context.Context, id, name string) (Faculty, error) {
	name, err := s.cleanName(name)
	if err != nil {
		return Faculty{}, err
	}
	if !ids.Valid(id) {
		return Faculty{}, ErrNotFound
	}
	return s.store.RenameFaculty(ctx, id, name)
}

// DeleteFaculty removes a faculty. Faculties that still own programs cannot be deleted.
func (s *Service) DeleteFaculty(ctx context.Context, id string) error {
	if !ids.Valid(id) {
		return ErrNotFound
	}
	return s.store.DeleteFaculty(ctx, id)
}

// CreateProgram stores a new program under facultyID.
//
// A facultyID that is not a well-formed id is ErrInvalidInput; a well-formed id
// with no faculty behind it is ErrFacultyNotFound.
func (s *Service) CreateProgram(ctx context.Context, name, facultyID string) (Program, error) {
	name, err := s.cleanName(name)
	if err != nil {
		return Program{}, err
	}
	facultyID = strings.TrimSpace(facultyID)
	if !ids.Valid(facultyID) {
		return Program{}, ErrInvalidInput
	}
	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return Program{}, err
	}

	p := Program{ID: id, Name: name, FacultyID: facultyID, CreatedAt: now}
	if err := s.store.CreateProgram(ctx, p); err != nil {
		return Program{}, err
	}
	return p, nil
}

// ListPrograms returns every program, oldest first.
func (s *Service) ListPrograms(ctx context.Context) ([]Program, error) {
	return s.store.ListPrograms(ctx)
}

// GetProgram returns one program.
func (s *Service) GetProgram(ctx context.Context, id string) (Program, error) {
	if !ids.Valid(id) {
		return Program{}, ErrNotFound
	}
	return s.store.GetProgram(ctx, id)
}

// UpdateProgram applies a partial update. An empty patch is ErrInvalidInput.
func (s *Service) UpdateProgram(ctx context.Context, id string, p ProgramPatch) (Program, error) {
	if p.Name == nil && p.FacultyID == nil {
		return Program{}, ErrInvalidInput
	}
	if p.Name != nil {
		name, err := s.cleanName(*p.Name)
		if err != nil {
			return Program{}, err
		}
		p.Name = &name
	}
	if p.FacultyID != nil {
		fid := strings.TrimSpace(*p.FacultyID)
		if !ids.Valid(fid) {
			return Program{}, ErrInvalidInput
		}
		p.FacultyID = &fid
	}
	if !ids.Valid(id) {
		return Program{}, ErrNotFound
	}
	return s.store.UpdateProgram(ctx, id, p)
}

// DeleteProgram removes a program.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	if !ids.Valid(id) {
		return ErrNotFound
	}
	return s.store.DeleteProgram(ctx, id)
}

func (s *Service) cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > s.maxNameLen {
		return "", ErrInvalidInput
	}
	return name, nil
}
