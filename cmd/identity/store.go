package identity

import (
	"context"
	"strings"
	"time"
)

// Role is a coarse authorization level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps a wire value to a Role. Empty input yields RoleUser.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleUser, true
	case string(RoleUser):
		return RoleUser, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// User is the campus account record.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a new account. PasswordHash must already be hashed.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	Now          time.Time
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Role         *Role
	IsVerified   *bool
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil && p.Role == nil && p.IsVerified == nil
}

// ListFilter narrows ListUsers. Empty strings are ignored; Limit <= 0 means DefaultListLimit.
type ListFilter struct {
	Username string
	Email    string
	Role     string
	Skip     int
	Limit    int
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Bounds returns the effective skip and limit after defaulting and clamping.
func (f ListFilter) Bounds() (skip, limit int) {
	skip, limit = f.Skip, f.Limit
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}

// Store is the user persistence boundary.
//
// Lookups by a malformed id report ErrNotFound, never a distinct parse error.
// Email uniqueness is case-insensitive; duplicates yield a ConflictError on "email".
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// FindUserByLogin matches identifier against email or username.
	// An email match wins over a username match; among equals the oldest account wins.
	FindUserByLogin(ctx context.Context, identifier string) (User, error)

	// ListUsers returns one page plus the total number of matches.
	ListUsers(ctx context.Context, f ListFilter) ([]User, int, error)

	UpdateUser(ctx context.Context, id string, p UserPatch, now time.Time) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

func prepareCreate(op string, in CreateUserInput) (CreateUserInput, error) {
	in.Username = NormalizeUsername(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return in, invalid(op, "username is required")
	}
	if !ValidUsername(in.Username) {
		return in, invalid(op, "username is too long")
	}
	if !ValidEmail(in.Email) {
		return in, invalid(op, "valid email is required")
	}
	if in.PasswordHash == "" {
		return in, invalid(op, "password hash is required")
	}
	if in.Role == "" {
		in.Role = RoleUser
	}
	if _, ok := ParseRole(string(in.Role)); !ok {
		return in, invalid(op, "unknown role")
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	return in, nil
}

func preparePatch(op string, p UserPatch) (UserPatch, error) {
	if p.Empty() {
		return p, invalid(op, "no fields to update")
	}
	if p.Username != nil {
		u := NormalizeUsername(*p.Username)
		if u == "" {
			return p, invalid(op, "username must not be empty")
		}
		if !ValidUsername(u) {
			return p, invalid(op, "username is too long")
		}
		p.Username = &u
	}
	if p.Email != nil {
		e := strings.TrimSpace(*p.Email)
		if !ValidEmail(e) {
			return p, invalid(op, "valid email is required")
		}
		p.Email = &e
	}
	if p.PasswordHash != nil && *p.PasswordHash == "" {
		return p, invalid(op, "password hash must not be empty")
	}
	if p.Role != nil {
		if _, ok := ParseRole(string(*p.Role)); !ok || *p.Role == "" {
			return p, invalid(op, "unknown role")
		}
	}
	return p, nil
}
