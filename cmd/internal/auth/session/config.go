package session

import (
	"os"
	"strconv"
	"strings"
	"time"

	"campus/cmd/security/token"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// Secret is the HMAC key shared by every token the service issues.
	Secret []byte

	// Algorithm is HS256, HS384 or HS512.
	Algorithm string

	AccessTokenTTL time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration

	// EmailChangeTokenMinutes is the lifetime of verify_new_email tokens.
	EmailChangeTokenMinutes int
}

// DefaultConfig returns the baseline lifetimes. Secret is left empty.
func DefaultConfig() Config {
	return Config{
		Algorithm:               token.DefaultAlgorithm,
		AccessTokenTTL:          60 * time.Minute,
		VerifyTokenTTL:          24 * time.Hour,
		ResetTokenTTL:           30 * time.Minute,
		EmailChangeTokenMinutes: 30,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - SECRET_KEY
//
// Optional:
//   - JWT_ALGORITHM (HS256 | HS384 | HS512)
//   - ACCESS_TOKEN_EXPIRE_MINUTES (positive integer)
//   - CAMPUS_VERIFY_TOKEN_TTL (Go duration)
//   - CAMPUS_RESET_TOKEN_TTL (Go duration)
//   - CAMPUS_EMAIL_CHANGE_TOKEN_MINUTES (positive integer)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	secret, err := token.SecretFromEnv(0)
	if err != nil {
		return Config{}, ErrConfig
	}
	cfg.Secret = secret

	if v := strings.TrimSpace(os.Getenv("JWT_ALGORITHM")); v != "" {
		switch strings.ToUpper(v) {
		case "HS256", "HS384", "HS512":
			cfg.Algorithm = strings.ToUpper(v)
		default:
			return Config{}, ErrConfig
		}
	}

	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = time.Duration(n) * time.Minute
	}

	if v := os.Getenv("CAMPUS_VERIFY_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.VerifyTokenTTL = d
	}

	if v := os.Getenv("CAMPUS_RESET_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.ResetTokenTTL = d
	}

	if v := os.Getenv("CAMPUS_EMAIL_CHANGE_TOKEN_MINUTES"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.EmailChangeTokenMinutes = n
	}

	return cfg, nil
}

// NewCodec builds the token codec described by cfg.
func (cfg Config) NewCodec(opts ...token.Option) (*token.Codec, error) {
	base := []token.Option{
		token.WithAccessTTL(cfg.AccessTokenTTL),
		token.WithVerifyTTL(cfg.VerifyTokenTTL),
		token.WithResetTTL(cfg.ResetTokenTTL),
	}
	return token.NewCodec(cfg.Secret, cfg.Algorithm, append(base, opts...)...)
}
