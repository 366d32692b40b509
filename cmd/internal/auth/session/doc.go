// Package session implements campus login and bearer-token authentication.
//
// Access tokens are stateless HS256 JWTs that carry the account snapshot
// (id, username, email, role, verification flag) taken at login. Logging out
// records the raw token in a revocation store; every authentication consults
// that store before decoding the token.
//
// Purpose tokens (email verification, password reset, email change) share the
// same codec and are told apart by their "type" claim.
package session
