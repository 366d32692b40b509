// Package password provides password hashing and verification for campus accounts.
//
// Hashes are bcrypt strings: algorithm, cost and salt travel inside the hash,
// so a stored credential can be verified without any side-channel metadata.
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify.
// - bcrypt only consumes the first 72 bytes of input; the policy rejects longer
//   passwords instead of silently truncating them.
package password
