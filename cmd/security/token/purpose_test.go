package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAccess_DefaultTTLAndUntyped(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk)

	tok, exp, err := c.IssueAccess(Claims{"user_id": "u1", ClaimType: "reset"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if want := clk.t.Add(60 * time.Minute); !exp.Equal(want) {
		t.Fatalf("exp=%v want=%v", exp, want)
	}

	claims, err := c.DecodeAccess(tok)
	if err != nil {
		t.Fatalf("DecodeAccess: %v", err)
	}
	if claims.Type() != "" {
		t.Fatalf("access token must be untyped, got %q", claims.Type())
	}

	clk.t = exp
	if _, err := c.DecodeAccess(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestIssueVerify_DecodeTyped(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk)

	tok, err := c.IssueVerify("alice@x.com")
	if err != nil {
		t.Fatalf("IssueVerify: %v", err)
	}

	claims, err := c.DecodeTyped(tok, TypeVerify)
	if err != nil {
		t.Fatalf("DecodeTyped: %v", err)
	}
	if claims.Subject() != "alice@x.com" {
		t.Fatalf("sub=%q", claims.Subject())
	}

	clk.t = clk.t.Add(24*time.Hour - time.Second)
	if _, err := c.DecodeTyped(tok, TypeVerify); err != nil {
		t.Fatalf("expected valid within a day, got %v", err)
	}
	clk.t = clk.t.Add(time.Second)
	if _, err := c.DecodeTyped(tok, TypeVerify); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after a day, got %v", err)
	}
}

func TestDecodeTyped_WrongPurpose(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk)

	reset, err := c.IssueReset("alice@x.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	cases := []struct {
		name     string
		expected string
	}{
		{name: "reset as verify", expected: TypeVerify},
		{name: "reset as email change", expected: TypeEmailChange},
		{name: "reset as access", expected: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.DecodeTyped(reset, tc.expected); !errors.Is(err, ErrWrongType) {
				t.Fatalf("expected ErrWrongType, got %v", err)
			}
		})
	}

	access, _, err := c.IssueAccess(Claims{"user_id": "u1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := c.DecodeTyped(access, TypeReset); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType for access token presented as reset, got %v", err)
	}
}

func TestIssueReset_ThirtyMinutes(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk)

	tok, err := c.IssueReset("alice@x.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	clk.t = clk.t.Add(30 * time.Minute)
	if _, err := c.DecodeTyped(tok, TypeReset); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestIssueTyped_EmailChange(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk)

	in := Claims{ClaimSubject: "u1", "new_email": "alice@new.example"}
	tok, err := c.IssueTyped(in, TypeEmailChange, 15)
	if err != nil {
		t.Fatalf("IssueTyped: %v", err)
	}
	if _, ok := in[ClaimType]; ok {
		t.Fatalf("IssueTyped must not mutate its input")
	}

	claims, err := c.DecodeTyped(tok, TypeEmailChange)
	if err != nil {
		t.Fatalf("DecodeTyped: %v", err)
	}
	if claims.String("new_email") != "alice@new.example" || claims.Subject() != "u1" {
		t.Fatalf("unexpected claims: %v", claims)
	}

	clk.t = clk.t.Add(15 * time.Minute)
	if _, err := c.DecodeTyped(tok, TypeEmailChange); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestTTLOptions(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clk, WithAccessTTL(5*time.Minute), WithVerifyTTL(time.Hour), WithResetTTL(time.Minute))

	_, exp, err := c.IssueAccess(Claims{})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.Equal(clk.t.Add(5 * time.Minute)) {
		t.Fatalf("access ttl not applied: %v", exp)
	}

	reset, err := c.IssueReset("a@x.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	clk.t = clk.t.Add(time.Minute)
	if _, err := c.DecodeTyped(reset, TypeReset); !errors.Is(err, ErrExpired) {
		t.Fatalf("reset ttl not applied: %v", err)
	}
}
