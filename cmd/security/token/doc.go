// Package token encodes and decodes the signed, expiring tokens used by campus.
//
// Tokens are compact JWS strings (header.claims.signature, base64url segments)
// signed with a single process-wide HMAC secret. There is no key rotation and
// no key id; every instance of the service must share SECRET_KEY.
//
// Decoding verifies the signature before looking at any claim, then checks
// "exp" against the codec clock. Purpose tokens carry a "type" claim and are
// only honored by DecodeTyped with the matching type; access tokens carry no
// type at all.
//
// Environment:
// - SECRET_KEY: signing secret (required).
package token
