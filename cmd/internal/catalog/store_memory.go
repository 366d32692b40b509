package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used when no database is configured.
// It enforces the same faculty reference rules as the Postgres schema.
type MemoryStore struct {
	mu        sync.RWMutex
	faculties map[string]Faculty
	programs  map[string]Program
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		faculties: make(map[string]Faculty),
		programs:  make(map[string]Program),
	}
}

func (s *MemoryStore) CreateFaculty(ctx context.Context, f Faculty) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faculties[f.ID]; ok {
		return ErrConflict
	}
	s.faculties[f.ID] = f
	return nil
}

func (s *MemoryStore) ListFaculties(ctx context.Context) ([]Faculty, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Faculty, 0, len(s.faculties))
	for _, f := range s.faculties {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetFaculty(ctx context.Context, id string) (Faculty, error) {
	if err := ctx.Err(); err != nil {
		return Faculty{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faculties[id]
	if !ok {
		return Faculty{}, ErrNotFound
	}
	return f, nil
}

func (s *MemoryStore) RenameFaculty(ctx context.Context, id, name string) (Faculty, error) {
	if err := ctx.Err(); err != nil {
		return Faculty{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faculties[id]
	if !ok {
		return Faculty{}, ErrNotFound
	}
	f.Name = name
	s.faculties[id] = f
	return f, nil
}

func (s *MemoryStore) DeleteFaculty(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faculties[id]; !ok {
		return ErrNotFound
	}
	for _, p := range s.programs {
		if p.FacultyID == id {
			return ErrFacultyInUse
		}
	}
	delete(s.faculties, id)
	return nil
}

func (s *MemoryStore) CreateProgram(ctx context.Context, p Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faculties[p.FacultyID]; !ok {
		return ErrFacultyNotFound
	}
	if _, ok := s.programs[p.ID]; ok {
		return ErrConflict
	}
	s.programs[p.ID] = p
	return nil
}

func (s *MemoryStore) ListPrograms(ctx context.Context) ([]Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Program, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetProgram(ctx context.Context, id string) (Program, error) {
	if err := ctx.Err(); err != nil {
		return Program{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[id]
	if !ok {
		return Program{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) UpdateProgram(ctx context.Context, id string, patch ProgramPatch) (Program, error) {
	if err := ctx.Err(); err != nil {
		return Program{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok {
		return Program{}, ErrNotFound
	}
	if patch.FacultyID != nil {
		if _, ok := s.faculties[*patch.FacultyID]; !ok {
			return Program{}, ErrFacultyNotFound
		}
		p.FacultyID = *patch.FacultyID
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	s.programs[id] = p
	return p, nil
}

func (s *MemoryStore) DeleteProgram(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[id]; !ok {
		return ErrNotFound
	}
	delete(s.programs, id)
	return nil
}
