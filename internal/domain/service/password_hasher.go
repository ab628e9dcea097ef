// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification
// against a stored per-user salt. This abstracts the underlying key
// derivation function, keeping the domain pure.
type PasswordHasher interface {
	// Hash derives a hash from a plaintext password and the given salt.
	Hash(password, salt string) (string, error)

	// Check recomputes the hash for the plaintext password with the stored
	// salt and compares it byte-for-byte against the stored hash.
	Check(password, salt, hash string) bool
}
