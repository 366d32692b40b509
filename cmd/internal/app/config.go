package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config contains all runtime configuration.
//
// Sources are layered, later ones winning: defaults, the optional YAML file,
// environment variables, then flags the user actually set.
type Config struct {
	HTTPAddr string `koanf:"http.addr"`
	LogLevel string `koanf:"log.level"`
	// LogFormat is "json" (default) or "text".
	LogFormat string `koanf:"log.format"`

	ReadHeaderTimeout time.Duration `koanf:"http.read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"http.read_timeout"`
	WriteTimeout      time.Duration `koanf:"http.write_timeout"`
	IdleTimeout       time.Duration `koanf:"http.idle_timeout"`
	MaxHeaderBytes    int           `koanf:"http.max_header_bytes"`
	MaxBodyBytes      int64         `koanf:"http.max_body_bytes"`

	CORSAllowedOrigins   []string `koanf:"http.cors_allowed_origins"`
	CORSAllowCredentials bool     `koanf:"http.cors_allow_credentials"`
	CORSMaxAgeSeconds    int      `koanf:"http.cors_max_age_seconds"`

	DatabaseURL string `koanf:"db.url"`
	DBMaxConns  int32  `koanf:"db.max_conns"`
	DBMinConns  int32  `koanf:"db.min_conns"`
	AutoMigrate bool   `koanf:"db.auto_migrate"`

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool `koanf:"readiness_require_db"`

	// RequireStrongSecret makes a SECRET_KEY shorter than 32 bytes fatal at startup.
	RequireStrongSecret bool `koanf:"security.require_strong_secret"`

	PublicBaseURL string `koanf:"public_base_url"`

	SMTPHost     string `koanf:"email.smtp_host"`
	SMTPPort     int    `koanf:"email.smtp_port"`
	SMTPUsername string `koanf:"email.smtp_username"`
	SMTPPassword string `koanf:"email.smtp_password"`
	EmailSender  string `koanf:"email.sender"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:8000",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		MaxBodyBytes:      1 << 20,

		CORSMaxAgeSeconds: 600,

		DBMaxConns: 10,
		DBMinConns: 0,

		PublicBaseURL: "http://localhost:8000",

		SMTPPort:    587,
		EmailSender: "Campus <no-reply@campus.local>",
	}
}

// envKeys maps environment variables onto config keys. Variables not listed are ignored.
var envKeys = map[string]string{
	"CAMPUS_HTTP_ADDR":                "http.addr",
	"CAMPUS_HTTP_READ_HEADER_TIMEOUT": "http.read_header_timeout",
	"CAMPUS_HTTP_READ_TIMEOUT":        "http.read_timeout",
	"CAMPUS_HTTP_WRITE_TIMEOUT":       "http.write_timeout",
	"CAMPUS_HTTP_IDLE_TIMEOUT":        "http.idle_timeout",
	"CAMPUS_HTTP_MAX_HEADER_BYTES":    "http.max_header_bytes",
	"CAMPUS_HTTP_MAX_BODY_BYTES":      "http.max_body_bytes",
	"CAMPUS_CORS_ALLOWED_ORIGINS":     "http.cors_allowed_origins",
	"CAMPUS_CORS_ALLOW_CREDENTIALS":   "http.cors_allow_credentials",
	"CAMPUS_CORS_MAX_AGE_SECONDS":     "http.cors_max_age_seconds",
	"CAMPUS_LOG_LEVEL":                "log.level",
	"CAMPUS_LOG_FORMAT":               "log.format",
	"DATABASE_URL":                    "db.url",
	"CAMPUS_DB_MAX_CONNS":             "db.max_conns",
	"CAMPUS_DB_MIN_CONNS":             "db.min_conns",
	"CAMPUS_DB_AUTO_MIGRATE":          "db.auto_migrate",
	"CAMPUS_READINESS_REQUIRE_DB":     "readiness_require_db",
	"CAMPUS_REQUIRE_STRONG_SECRET":    "security.require_strong_secret",
	"CAMPUS_PUBLIC_BASE_URL":          "public_base_url",
	"SMTP_HOST":                       "email.smtp_host",
	"SMTP_PORT":                       "email.smtp_port",
	"SMTP_USERNAME":                   "email.smtp_username",
	"SMTP_PASSWORD":                   "email.smtp_password",
	"EMAIL_SENDER":                    "email.sender",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"addr":         "http.addr",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"database-url": "db.url",
	"auto-migrate": "db.auto_migrate",
}

// LoadOptions selects the optional config sources.
type LoadOptions struct {
	// File is a YAML config file. Empty means none.
	File string
	// Flags holds command-line flags; only flags the user set override other sources.
	Flags *pflag.FlagSet
}

// LoadConfig builds Config from defaults, file, environment and flags.
func LoadConfig(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaultsProvider(DefaultConfig()), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: file %s: %w", path, err)
		}
	}

	envCallback := func(s string) string { return envKeys[s] }
	if err := k.Load(env.Provider("", ".", envCallback), nil); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	if opts.Flags != nil {
		flagCallback := func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagCallback), nil); err != nil {
			return Config{}, fmt.Errorf("config: flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.DBMaxConns < 0 || c.DBMinConns < 0 {
		errs = append(errs, errors.New("db.max_conns and db.min_conns must not be negative"))
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		errs = append(errs, errors.New("db.min_conns must not exceed db.max_conns"))
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		errs = append(errs, errors.New("email.smtp_port must be a valid port"))
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// defaultsProvider feeds a Config into koanf through its flat keys.
type defaultsProvider Config

func (p defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("defaults provider does not support ReadBytes")
}

func (p defaultsProvider) Read() (map[string]any, error) {
	c := Config(p)
	flat := map[string]any{
		"http.addr":                      c.HTTPAddr,
		"log.level":                      c.LogLevel,
		"log.format":                     c.LogFormat,
		"http.read_header_timeout":       c.ReadHeaderTimeout,
		"http.read_timeout":              c.ReadTimeout,
		"http.write_timeout":             c.WriteTimeout,
		"http.idle_timeout":              c.IdleTimeout,
		"http.max_header_bytes":          c.MaxHeaderBytes,
		"http.max_body_bytes":            c.MaxBodyBytes,
		"http.cors_allowed_origins":      c.CORSAllowedOrigins,
		"http.cors_allow_credentials":    c.CORSAllowCredentials,
		"http.cors_max_age_seconds":      c.CORSMaxAgeSeconds,
		"db.url":                         c.DatabaseURL,
		"db.max_conns":                   c.DBMaxConns,
		"db.min_conns":                   c.DBMinConns,
		"db.auto_migrate":                c.AutoMigrate,
		"readiness_require_db":           c.ReadinessRequireDB,
		"security.require_strong_secret": c.RequireStrongSecret,
		"public_base_url":                c.PublicBaseURL,
		"email.smtp_host":                c.SMTPHost,
		"email.smtp_port":                c.SMTPPort,
		"email.smtp_username":            c.SMTPUsername,
		"email.smtp_password":            c.SMTPPassword,
		"email.sender":                   c.EmailSender,
	}
	return unflatten(flat), nil
}

// unflatten turns "a.b" keys into nested maps, the shape koanf providers return.
func unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}
	return out
}
