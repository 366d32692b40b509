package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for key := range envKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(LoadOptions{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	def := DefaultConfig()
	if cfg.HTTPAddr != def.HTTPAddr || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second || cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg)
	}
	if cfg.DatabaseURL != "" || cfg.DBMaxConns != 10 || cfg.AutoMigrate {
		t.Fatalf("unexpected db defaults: %+v", cfg)
	}
	if cfg.MaxBodyBytes != 1<<20 || cfg.SMTPPort != 587 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "campus.yaml")
	yaml := `
http:
  addr: "127.0.0.1:9000"
  read_timeout: 30s
  cors_allowed_origins:
    - https://app.example.com
log:
  level: debug
db:
  url: postgres://file@localhost/campus
  max_conns: 4
public_base_url: https://campus.example
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Environment overrides the file.
	t.Setenv("DATABASE_URL", "postgres://env@localhost/campus")
	t.Setenv("CAMPUS_DB_AUTO_MIGRATE", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CAMPUS_HTTP_IDLE_TIMEOUT", "90s")

	// Flags override both, but only when set.
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", DefaultConfig().HTTPAddr, "")
	fs.String("log-level", "info", "")
	fs.String("config", "", "")
	if err := fs.Parse([]string{"--log-level=warn", "--config=" + path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadConfig(LoadOptions{File: path, Flags: fs})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("unset flag must not override file: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("flag should win: %q", cfg.LogLevel)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.IdleTimeout != 90*time.Second {
		t.Fatalf("durations: read=%v idle=%v", cfg.ReadTimeout, cfg.IdleTimeout)
	}
	if cfg.DatabaseURL != "postgres://env@localhost/campus" || !cfg.AutoMigrate || cfg.DBMaxConns != 4 {
		t.Fatalf("db: %+v", cfg)
	}
	if cfg.SMTPHost != "smtp.example.com" || cfg.SMTPPort != 2525 {
		t.Fatalf("smtp: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://app.example.com"}) {
		t.Fatalf("cors origins: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.PublicBaseURL != "https://campus.example" {
		t.Fatalf("public base url: %q", cfg.PublicBaseURL)
	}
}

func TestLoadConfig_CommaSeparatedOrigins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CAMPUS_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg, err := LoadConfig(LoadOptions{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Fatalf("got %#v want %#v", cfg.CORSAllowedOrigins, want)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad int", env: map[string]string{"CAMPUS_DB_MAX_CONNS": "lots"}},
		{name: "min above max", env: map[string]string{"CAMPUS_DB_MAX_CONNS": "2", "CAMPUS_DB_MIN_CONNS": "5"}},
		{name: "bad log format", env: map[string]string{"CAMPUS_LOG_FORMAT": "xml"}},
		{name: "bad smtp port", env: map[string]string{"SMTP_HOST": "smtp.example.com", "SMTP_PORT": "70000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(LoadOptions{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfig(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
