package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"campus/cmd/identity/ids"
)

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
	email map[string]string // email_norm -> id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
		email: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	in, err := prepareCreate(op, in)
	if err != nil {
		return User{}, err
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(in.Email)
	if _, taken := s.email[norm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		IsVerified:   in.IsVerified,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}
	s.users[id] = u
	s.email[norm] = id
	return u, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if !ids.Valid(id) {
		return User{}, userNotFound(op)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, userNotFound(op)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.email[NormalizeEmail(email)]
	if !ok {
		return User{}, userNotFound(op)
	}
	return s.users[id], nil
}

func (s *MemoryStore) FindUserByLogin(ctx context.Context, identifier string) (User, error) {
	const op = "identity.FindUserByLogin"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.email[NormalizeEmail(identifier)]; ok {
		return s.users[id], nil
	}

	name := NormalizeUsername(identifier)
	if name == "" {
		return User{}, userNotFound(op)
	}
	for _, u := range s.sortedLocked() {
		if u.Username == name {
			return u, nil
		}
	}
	return User{}, userNotFound(op)
}

func (s *MemoryStore) ListUsers(ctx context.Context, f ListFilter) ([]User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	skip, limit := f.Bounds()
	username := NormalizeUsername(f.Username)
	email := NormalizeEmail(f.Email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []User
	for _, u := range s.sortedLocked() {
		if username != "" && u.Username != username {
			continue
		}
		if email != "" && NormalizeEmail(u.Email) != email {
			continue
		}
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		matched = append(matched, u)
	}

	total := len(matched)
	if skip >= total {
		return []User{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return append([]User(nil), matched[skip:end]...), total, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, p UserPatch, now time.Time) (User, error) {
	const op = "identity.UpdateUser"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	p, err := preparePatch(op, p)
	if err != nil {
		return User{}, err
	}
	if !ids.Valid(id) {
		return User{}, userNotFound(op)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, userNotFound(op)
	}

	if p.Email != nil {
		oldNorm := NormalizeEmail(u.Email)
		newNorm := NormalizeEmail(*p.Email)
		if owner, taken := s.email[newNorm]; taken && owner != id {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		delete(s.email, oldNorm)
		s.email[newNorm] = id
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	u.UpdatedAt = now

	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ids.Valid(id) {
		return userNotFound(op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return userNotFound(op)
	}
	delete(s.email, NormalizeEmail(u.Email))
	delete(s.users, id)
	return nil
}

// sortedLocked returns users oldest first. Caller holds s.mu.
func (s *MemoryStore) sortedLocked() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
