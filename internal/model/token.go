package model

import "time"

// Claims are the verified contents of a session token.
type Claims struct {
	IdentityID int64
	Role       Role
	ExpiresAt  time.Time
}

// TokenManager issues and verifies signed session tokens.
type TokenManager interface {
	Issue(identityID int64, role Role) (string, error)
	Verify(token string) (Claims, error)
}

// PasswordHasher derives and checks password hashes.
type PasswordHasher interface {
	// Hash derives a hash for password. An empty salt makes the hasher
	// generate a fresh one, which is returned alongside the hash.
	Hash(password, salt string) (hash string, usedSalt string, err error)
	Verify(password, hash, salt string) bool
}
