package session

import (
	"campus/cmd/identity"
	"campus/cmd/security/token"
)

// Access token claim names.
const (
	ClaimUserID   = "user_id"
	ClaimUsername = "username"
	ClaimEmail    = "email"
	ClaimRole     = "role"
	ClaimVerified = "is_verified"

	// ClaimNewEmail is carried by verify_new_email tokens next to "sub" (the user id).
	ClaimNewEmail = "new_email"
)

// Identity is the caller established by a valid access token.
// Every field is a snapshot from login time; nothing is re-read from the store.
type Identity struct {
	UserID     string
	Username   string
	Email      string
	Role       identity.Role
	IsVerified bool

	// Token is the raw bearer token, kept for logout.
	Token string
}

// IsAdmin reports whether the token was issued to an admin.
func (id Identity) IsAdmin() bool { return id.Role == identity.RoleAdmin }

func accessClaims(u identity.User) token.Claims {
	role := u.Role
	if role == "" {
		role = identity.RoleUser
	}
	return token.Claims{
		ClaimUserID:   u.ID,
		ClaimUsername: u.Username,
		ClaimEmail:    u.Email,
		ClaimRole:     string(role),
		ClaimVerified: u.IsVerified,
	}
}

func identityFromClaims(c token.Claims, raw string) (Identity, bool) {
	id := Identity{
		UserID:     c.String(ClaimUserID),
		Username:   c.String(ClaimUsername),
		Email:      c.String(ClaimEmail),
		Role:       identity.Role(c.String(ClaimRole)),
		IsVerified: c.Bool(ClaimVerified),
		Token:      raw,
	}
	if id.Role == "" {
		id.Role = identity.RoleUser
	}
	return id, id.UserID != ""
}
