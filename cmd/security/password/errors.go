package password

import "errors"

// Policy errors are returned by Validate and Hash before any hashing work is done.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
)

// ErrInvalidHash means a stored credential is not a bcrypt hash this package can check.
// Callers treat it as a server fault, never as a wrong password.
var ErrInvalidHash = errors.New("invalid password hash")
