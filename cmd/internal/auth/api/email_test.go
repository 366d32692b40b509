package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"testing"
	"time"

	"campus/cmd/security/token"
)

func TestEmailMessage_ValidateRejectsHeaderInjection(t *testing.T) {
	cases := []EmailMessage{
		{To: "alice@x.com\r\nBcc: eve@x.com", Subject: "hi"},
		{To: "alice@x.com", Subject: "hi\nBcc: eve@x.com"},
		{To: "not an address", Subject: "hi"},
	}
	for _, msg := range cases {
		if err := msg.validate(); !errors.Is(err, ErrInvalidEmailMessage) {
			t.Fatalf("validate(%q, %q): expected ErrInvalidEmailMessage, got %v", msg.To, msg.Subject, err)
		}
	}
	if err := (EmailMessage{To: "alice@x.com", Subject: "hi"}).validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBuildMIME(t *testing.T) {
	from := &mail.Address{Name: "Campus", Address: "noreply@campus.example"}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := string(buildMIME(from, EmailMessage{
		To:      "alice@x.com",
		Subject: "Verify your email",
		HTML:    "<p>a</p>\n<p>b</p>",
	}, now))

	for _, want := range []string{
		"From: \"Campus\" <noreply@campus.example>\r\n",
		"To: alice@x.com\r\n",
		"Subject: Verify your email\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"\r\n\r\n<p>a</p>\r\n<p>b</p>\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestLogEmailSender(t *testing.T) {
	var buf bytes.Buffer
	s := LogEmailSender{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	const tok = "eyJhbGciOiJIUzI1NiJ9.reset-token.sig"
	msg := EmailMessage{
		To:      "alice@x.com",
		Subject: "Reset your password",
		HTML:    `<a href="https://campus.example/reset-password?token=` + tok + `">reset</a>`,
		Token:   tok,
	}
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"msg":"email.outbox"`, "alice@x.com", `"token_fp":"` + token.Fingerprint(tok) + `"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
	for _, leak := range []string{tok, "reset-password?token"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log output leaks %q: %s", leak, out)
		}
	}

	if err := s.Send(context.Background(), EmailMessage{To: "bad\naddr"}); !errors.Is(err, ErrInvalidEmailMessage) {
		t.Fatalf("expected ErrInvalidEmailMessage, got %v", err)
	}
}

func TestSMTPEmailSender_RejectsBadSenderBeforeDialing(t *testing.T) {
	s := SMTPEmailSender{Host: "127.0.0.1", Port: 1, From: "not an address"}
	err := s.Send(context.Background(), EmailMessage{To: "alice@x.com", Subject: "hi"})
	if !errors.Is(err, ErrInvalidEmailMessage) {
		t.Fatalf("expected ErrInvalidEmailMessage, got %v", err)
	}
}

func TestComposeLinks(t *testing.T) {
	h := &Handler{cfg: Config{PublicBaseURL: "https://campus.example/"}.withDefaults()}

	msg, err := h.composeReset("alice@x.com", "<alice>", "abc.def-ghi_jkl")
	if err != nil {
		t.Fatalf("composeReset: %v", err)
	}
	if !strings.Contains(msg.HTML, `href="https://campus.example/reset-password?token=abc.def-ghi_jkl"`) {
		t.Fatalf("reset link missing: %s", msg.HTML)
	}
	if msg.Token != "abc.def-ghi_jkl" {
		t.Fatalf("token not carried on message: %q", msg.Token)
	}
	if strings.Contains(msg.HTML, "<alice>") {
		t.Fatalf("username not escaped: %s", msg.HTML)
	}

	msg, err = h.composeVerification("alice@x.com", "alice", "t")
	if err != nil {
		t.Fatalf("composeVerification: %v", err)
	}
	if msg.To != "alice@x.com" || !strings.Contains(msg.HTML, "/verify-email?token=t") {
		t.Fatalf("unexpected verification email: %+v", msg)
	}
}
