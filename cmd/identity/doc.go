// Package identity owns campus user records: the User model, id and email
// normalization, and the Store boundary with in-memory and PostgreSQL backends.
//
// Password hashing lives in security/password; this package only stores the
// resulting hash and never exposes it outside the auth layer.
package identity
