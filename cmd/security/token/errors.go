package token

import "errors"

// Public, stable errors for callers.
var (
	ErrMalformed            = errors.New("token malformed")
	ErrInvalidSignature     = errors.New("token signature invalid")
	ErrExpired              = errors.New("token expired")
	ErrWrongType            = errors.New("token type mismatch")
	ErrSecretMissing        = errors.New("token secret missing")
	ErrSecretTooShort       = errors.New("token secret too short")
	ErrUnsupportedAlgorithm = errors.New("token algorithm unsupported")
)
