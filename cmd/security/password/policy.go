package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// commonPasswords are rejected outright when Policy.RejectVeryWeak is set.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {},
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {},
	"qwerty": {}, "qwerty123": {}, "abc123": {}, "letmein": {},
	"rahasia": {}, "rahasia123": {}, "mahasiswa": {}, "kampus123": {},
}

// Validate checks plaintext against the policy before hashing.
//
// MinLength counts runes. MaxLength counts bytes and is clamped to MaxBcryptBytes, since
// bcrypt refuses longer input instead of truncating it.
func (c Config) Validate(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if len(plaintext) > c.maxBytes() {
		return ErrPasswordTooLong
	}
	if c.Policy.RejectVeryWeak && isVeryWeak(plaintext) {
		return ErrWeakPassword
	}
	return nil
}

func (c Config) maxBytes() int {
	if c.Policy.MaxLength <= 0 || c.Policy.MaxLength > MaxBcryptBytes {
		return MaxBcryptBytes
	}
	return c.Policy.MaxLength
}

// isVeryWeak catches only the obvious cases: well-known passwords, a single repeated
// character, and short all-digit PINs.
func isVeryWeak(plaintext string) bool {
	s := strings.ToLower(strings.TrimSpace(plaintext))
	if s == "" {
		return true
	}
	if _, ok := commonPasswords[s]; ok {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Count(s, string(first)) == utf8.RuneCountInString(s) {
		return true
	}

	isPIN := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
	return isPIN && utf8.RuneCountInString(s) < 10
}
