package app

import (
	"errors"
	"fmt"

	"campus/cmd/security/token"
)

// MinStrongSecretBytes is the SECRET_KEY length required when RequireStrongSecret is set.
const MinStrongSecretBytes = 32

// ValidateSecurityConfig enforces the startup security policy.
//
// SECRET_KEY must always be present. With RequireStrongSecret it must also be at least
// MinStrongSecretBytes long, measured in bytes because the key is used as raw HMAC input.
func ValidateSecurityConfig(cfg Config) error {
	minBytes := 1
	if cfg.RequireStrongSecret {
		minBytes = MinStrongSecretBytes
	}

	if _, err := token.SecretFromEnv(minBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return errors.New("security policy: SECRET_KEY is not set")
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: CAMPUS_REQUIRE_STRONG_SECRET=true but SECRET_KEY is shorter than %d bytes", MinStrongSecretBytes)
		default:
			return err
		}
	}
	return nil
}
