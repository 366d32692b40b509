package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names shared by issuers and verifiers.
const (
	ClaimExpiry  = "exp"
	ClaimSubject = "sub"
	ClaimType    = "type"
)

// DefaultAlgorithm is the signing algorithm used when none is configured.
const DefaultAlgorithm = "HS256"

// Claims is a decoded token body. Numbers come back as float64 (JSON semantics).
type Claims map[string]any

// String returns the claim as a string, or "" when absent or not a string.
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Bool returns the claim as a bool, or false when absent or not a bool.
func (c Claims) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Type returns the purpose tag; access tokens return "".
func (c Claims) Type() string { return c.String(ClaimType) }

// Subject returns the "sub" claim.
func (c Claims) Subject() string { return c.String(ClaimSubject) }

func (c Claims) clone() Claims {
	out := make(Claims, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Codec signs and verifies tokens with one secret and one HMAC algorithm.
// It is safe for concurrent use.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time

	accessTTL time.Duration
	verifyTTL time.Duration
	resetTTL  time.Duration
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAccessTTL overrides the access token lifetime (default 60 minutes).
func WithAccessTTL(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.accessTTL = d
		}
	}
}

// WithVerifyTTL overrides the email verification token lifetime (default 24 hours).
func WithVerifyTTL(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.verifyTTL = d
		}
	}
}

// WithResetTTL overrides the password reset token lifetime (default 30 minutes).
func WithResetTTL(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.resetTTL = d
		}
	}
}

// NewCodec builds a Codec. alg must be one of HS256, HS384, HS512 ("" means HS256).
func NewCodec(secret []byte, alg string, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		secret:    append([]byte(nil), secret...),
		method:    method,
		now:       time.Now,
		accessTTL: 60 * time.Minute,
		verifyTTL: 24 * time.Hour,
		resetTTL:  30 * time.Minute,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Algorithm returns the JWS "alg" value used for signing.
func (c *Codec) Algorithm() string { return c.method.Alg() }

// Now returns the codec clock reading.
func (c *Codec) Now() time.Time { return c.now() }

// Encode signs claims plus "exp" (Unix seconds). claims is not mutated.
func (c *Codec) Encode(claims Claims, exp time.Time) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc[ClaimExpiry] = exp.Unix()

	return jwt.NewWithClaims(c.method, mc).SignedString(c.secret)
}

// Decode verifies the signature, then the expiry, and returns the claims
// without "exp".
func (c *Codec) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformed
	}

	// Registered claims are validated below against the codec clock so tests can
	// control time; the library only checks structure and signature here.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	mc := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrMalformed
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrMalformed
	}
	if !c.now().Before(exp.Time) {
		return nil, ErrExpired
	}

	out := make(Claims, len(mc))
	for k, v := range mc {
		if k == ClaimExpiry {
			continue
		}
		out[k] = v
	}
	return out, nil
}
