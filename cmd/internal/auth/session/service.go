package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"campus/cmd/identity"
	"campus/cmd/security/token"
)

// Hasher is the credential hasher used by the service. password.Config satisfies it.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(encodedHash, plaintext string) (bool, error)
}

// Service implements login, bearer authentication, logout and purpose-token flows.
//
// All dependencies are passed in explicitly; the secret is read-only after construction.
type Service struct {
	cfg     Config
	codec   *token.Codec
	users   identity.Store
	hasher  Hasher
	revoked RevocationStore
	metrics *Metrics

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	metrics *Metrics
	codec   []token.Option
}

// WithMetrics records login and token-check outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithClock overrides the clock used for token issuance and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.codec = append(o.codec, token.WithClock(now)) }
}

// Issued is the result of a successful login.
type Issued struct {
	User        identity.User
	AccessToken string
	ExpiresAt   time.Time
}

// NewService constructs a Service.
func NewService(cfg Config, users identity.Store, hasher Hasher, revoked RevocationStore, opts ...Option) (*Service, error) {
	if users == nil || hasher == nil || revoked == nil {
		return nil, fmt.Errorf("%w: missing dependency", ErrConfig)
	}
	if cfg.EmailChangeTokenMinutes <= 0 {
		cfg.EmailChangeTokenMinutes = DefaultConfig().EmailChangeTokenMinutes
	}

	var o serviceOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	codec, err := cfg.NewCodec(o.codec...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return &Service{
		cfg:     cfg,
		codec:   codec,
		users:   users,
		hasher:  hasher,
		revoked: revoked,
		metrics: o.metrics,
	}, nil
}

// Codec exposes the token codec.
func (s *Service) Codec() *token.Codec { return s.codec }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.codec.Now() }

// Login authenticates identifier (email or username) with plaintext and issues an access token.
//
// An unknown identifier still pays for one hash verification so that both failure
// paths cost roughly the same.
func (s *Service) Login(ctx context.Context, identifier, plaintext string) (Issued, error) {
	u, err := s.users.FindUserByLogin(ctx, identifier)
	if err != nil {
		if !identity.IsNotFound(err) {
			return Issued{}, err
		}
		s.burnVerify(plaintext)
		s.metrics.login("fail")
		return Issued{}, ErrAuthenticationFailed
	}

	ok, err := s.hasher.Verify(u.PasswordHash, plaintext)
	if err != nil {
		return Issued{}, fmt.Errorf("session.Login: %w", err)
	}
	if !ok {
		s.metrics.login("fail")
		return Issued{}, ErrAuthenticationFailed
	}

	s.upgradeHash(ctx, u, plaintext)

	tok, exp, err := s.codec.IssueAccess(accessClaims(u))
	if err != nil {
		return Issued{}, fmt.Errorf("session.Login: %w", err)
	}

	s.metrics.login("ok")
	return Issued{User: u, AccessToken: tok, ExpiresAt: exp}, nil
}

// rehasher is implemented by hashers that can tell a stored hash was made with stale parameters.
type rehasher interface {
	NeedsRehash(encodedHash string) bool
}

// upgradeHash replaces u's stored hash when the hasher's cost has changed since it was written.
// A failed upgrade keeps the old hash; the login still succeeds.
func (s *Service) upgradeHash(ctx context.Context, u identity.User, plaintext string) {
	rh, ok := s.hasher.(rehasher)
	if !ok || !rh.NeedsRehash(u.PasswordHash) {
		return
	}

	h, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.metrics.rehash("fail")
		return
	}
	if _, err := s.users.UpdateUser(ctx, u.ID, identity.UserPatch{PasswordHash: &h}, s.Now()); err != nil {
		s.metrics.rehash("fail")
		return
	}
	s.metrics.rehash("ok")
}

func (s *Service) burnVerify(plaintext string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("campus-login-timing-guard")
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(s.dummyHash, plaintext)
	}
}

// Authenticate resolves a bearer token to an Identity.
//
// The revocation store is consulted before the token is decoded, so a revoked
// string is reported as revoked even when it would not decode. The check and the
// decode are not atomic: a logout racing this call may be missed once.
func (s *Service) Authenticate(ctx context.Context, raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)

	revoked, err := s.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("session.Authenticate: %w", err)
	}
	if revoked {
		s.metrics.tokenCheck("revoked")
		return Identity{}, ErrTokenRevoked
	}

	claims, err := s.codec.DecodeAccess(raw)
	if err != nil {
		err = classifyTokenError(err)
		s.metrics.tokenCheck(tokenCheckResult(err))
		return Identity{}, err
	}

	id, ok := identityFromClaims(claims, raw)
	if !ok {
		s.metrics.tokenCheck("invalid")
		return Identity{}, fmt.Errorf("%w: missing %s claim", ErrTokenInvalid, ClaimUserID)
	}

	s.metrics.tokenCheck("ok")
	return id, nil
}

// RequireVerified fails with ErrEmailNotVerified unless the token says the email was verified.
func (s *Service) RequireVerified(id Identity) error {
	if !id.IsVerified {
		return ErrEmailNotVerified
	}
	return nil
}

// RequireAdmin fails with ErrForbidden unless the token carries the admin role.
func (s *Service) RequireAdmin(id Identity) error {
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// Logout revokes raw. Later Authenticate calls with the same string fail with ErrTokenRevoked.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if err := s.revoked.Record(ctx, strings.TrimSpace(raw)); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	s.metrics.logout()
	return nil
}

// IssueVerification returns an email verification token for email.
func (s *Service) IssueVerification(email string) (string, error) {
	return s.codec.IssueVerify(email)
}

// ConsumeVerification validates a verification token and returns its email.
func (s *Service) ConsumeVerification(raw string) (string, error) {
	return s.consumeSubject(raw, token.TypeVerify)
}

// IssueReset returns a password reset token for email.
func (s *Service) IssueReset(email string) (string, error) {
	return s.codec.IssueReset(email)
}

// ConsumeReset validates a reset token and returns its email.
func (s *Service) ConsumeReset(raw string) (string, error) {
	return s.consumeSubject(raw, token.TypeReset)
}

// IssueEmailChange returns a verify_new_email token binding userID to newEmail.
func (s *Service) IssueEmailChange(userID, newEmail string) (string, error) {
	return s.codec.IssueTyped(token.Claims{
		token.ClaimSubject: userID,
		ClaimNewEmail:      newEmail,
	}, token.TypeEmailChange, s.cfg.EmailChangeTokenMinutes)
}

// ConsumeEmailChange validates a verify_new_email token.
func (s *Service) ConsumeEmailChange(raw string) (userID, newEmail string, err error) {
	claims, err := s.codec.DecodeTyped(strings.TrimSpace(raw), token.TypeEmailChange)
	if err != nil {
		return "", "", classifyTokenError(err)
	}
	userID, newEmail = claims.Subject(), claims.String(ClaimNewEmail)
	if userID == "" || newEmail == "" {
		return "", "", fmt.Errorf("%w: incomplete claims", ErrTokenInvalid)
	}
	return userID, newEmail, nil
}

func (s *Service) consumeSubject(raw, typ string) (string, error) {
	claims, err := s.codec.DecodeTyped(strings.TrimSpace(raw), typ)
	if err != nil {
		return "", classifyTokenError(err)
	}
	sub := claims.Subject()
	if sub == "" {
		return "", fmt.Errorf("%w: missing %s claim", ErrTokenInvalid, token.ClaimSubject)
	}
	return sub, nil
}

func tokenCheckResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrWrongTokenType):
		return "wrong_type"
	default:
		return "invalid"
	}
}
