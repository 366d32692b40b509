package session

import (
	"errors"
	"fmt"

	"campus/cmd/security/token"
)

var (
	// ErrAuthenticationFailed is returned by Login for an unknown identifier or a wrong password.
	// The two cases are deliberately indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTokenRevoked is returned when the presented token was logged out.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenInvalid is returned for bad signatures, malformed tokens and missing claims.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when a well-signed token is past its exp.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenType is returned when a token is presented to the wrong purpose.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrForbidden is returned when an authenticated caller lacks a privilege.
	ErrForbidden = errors.New("forbidden")

	// ErrEmailNotVerified is returned by RequireVerified. It wraps ErrForbidden.
	ErrEmailNotVerified = fmt.Errorf("%w: email not verified", ErrForbidden)

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// classifyTokenError maps codec failures onto the session taxonomy and keeps the cause.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, token.ErrWrongType):
		return fmt.Errorf("%w: %w", ErrWrongTokenType, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}

// IsTokenError reports whether err is any token failure (revoked, invalid, expired, wrong type).
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrWrongTokenType)
}
