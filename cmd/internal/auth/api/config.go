package api

import "strings"

// Config controls HTTP API behavior.
type Config struct {
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	// PublicBaseURL prefixes links mailed to users (verification, reset, email change).
	PublicBaseURL string
}

// DefaultConfig returns the values used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:  1 << 20, // 1 MiB
		PublicBaseURL: "http://localhost:8000",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = def.PublicBaseURL
	}
	return c
}
