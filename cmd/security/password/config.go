package password

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxBcryptBytes is the largest input bcrypt will consume.
const MaxBcryptBytes = 72

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int
	// MaxLength is measured in bytes and can never exceed MaxBcryptBytes.
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Cost   int
	Policy Policy
}

// DefaultConfig returns the baseline used by the API.
func DefaultConfig() Config {
	return Config{
		Cost: bcrypt.DefaultCost,
		Policy: Policy{
			MinLength:      6,
			MaxLength:      MaxBcryptBytes,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - CAMPUS_BCRYPT_COST
// - CAMPUS_PASSWORD_MIN_LEN
// - CAMPUS_PASSWORD_MAX_LEN
// - CAMPUS_PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("CAMPUS_BCRYPT_COST"); ok {
		n, err := atoiRange(v, bcrypt.MinCost, bcrypt.MaxCost)
		if err != nil {
			return Config{}, fmt.Errorf("CAMPUS_BCRYPT_COST: %w", err)
		}
		cfg.Cost = n
	}

	if v, ok := os.LookupEnv("CAMPUS_PASSWORD_MIN_LEN"); ok {
		n, err := atoiRange(v, 1, MaxBcryptBytes)
		if err != nil {
			return Config{}, fmt.Errorf("CAMPUS_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("CAMPUS_PASSWORD_MAX_LEN"); ok {
		n, err := atoiRange(v, 1, MaxBcryptBytes)
		if err != nil {
			return Config{}, fmt.Errorf("CAMPUS_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("CAMPUS_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("CAMPUS_PASSWORD_REJECT_VERY_WEAK: %w", err)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func atoiRange(s string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return n, nil
}

// parseBool accepts strconv.ParseBool forms plus yes/no and on/off.
func parseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("invalid boolean")
	}
	return b, nil
}
