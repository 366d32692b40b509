package password

import (
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv := []string{
		"CAMPUS_BCRYPT_COST",
		"CAMPUS_PASSWORD_MIN_LEN",
		"CAMPUS_PASSWORD_MAX_LEN",
		"CAMPUS_PASSWORD_REJECT_VERY_WEAK",
	}
	for _, k := range clearEnv {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Policy.MinLength != def.Policy.MinLength {
		t.Fatalf("min length mismatch")
	}
	if cfg.Cost != bcrypt.DefaultCost {
		t.Fatalf("cost mismatch: %d", cfg.Cost)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("CAMPUS_BCRYPT_COST", "11")
	t.Setenv("CAMPUS_PASSWORD_MIN_LEN", "8")
	t.Setenv("CAMPUS_PASSWORD_MAX_LEN", "64")
	t.Setenv("CAMPUS_PASSWORD_REJECT_VERY_WEAK", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 8 || cfg.Policy.MaxLength != 64 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Cost != 11 {
		t.Fatalf("cost override failed: %d", cfg.Cost)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "cost below bcrypt minimum", key: "CAMPUS_BCRYPT_COST", val: "2"},
		{name: "cost not a number", key: "CAMPUS_BCRYPT_COST", val: "fast"},
		{name: "max above bcrypt limit", key: "CAMPUS_PASSWORD_MAX_LEN", val: "73"},
		{name: "bad bool", key: "CAMPUS_PASSWORD_REJECT_VERY_WEAK", val: "maybe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("CAMPUS_PASSWORD_MIN_LEN", "20")
	t.Setenv("CAMPUS_PASSWORD_MAX_LEN", "10")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error")
	}
}
