package identity

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// MaxUsernameLen caps usernames in runes. Access tokens carry the username.
const MaxUsernameLen = 64

// NormalizeUsername trims surrounding whitespace. Usernames are matched case-sensitively.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// ValidUsername reports whether the normalized s is non-empty and within MaxUsernameLen.
func ValidUsername(s string) bool {
	s = NormalizeUsername(s)
	return s != "" && utf8.RuneCountInString(s) <= MaxUsernameLen
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s is a bare RFC 5322 address ("a@b.c", no display name).
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
