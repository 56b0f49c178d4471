// Package password implements salted PBKDF2-SHA256 password hashing.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dtroode/identity-server/internal/model"
)

const (
	// MinIterations is the lowest accepted iteration count.
	MinIterations = 100_000
	// DefaultSaltBytes is the random salt size before hex encoding.
	DefaultSaltBytes = 16

	keyLength = sha256.Size
)

var _ model.PasswordHasher = (*Hasher)(nil)

// Hasher derives PBKDF2-SHA256 keys rendered as lowercase hex.
// The salt is fed to the KDF as its string bytes.
type Hasher struct {
	iterations int
	saltBytes  int
}

// NewHasher creates a Hasher. Iteration counts below MinIterations are rejected.
func NewHasher(iterations, saltBytes int) (*Hasher, error) {
	if iterations < MinIterations {
		return nil, fmt.Errorf("iterations must be at least %d, got %d", MinIterations, iterations)
	}
	if saltBytes <= 0 {
		saltBytes = DefaultSaltBytes
	}
	return &Hasher{iterations: iterations, saltBytes: saltBytes}, nil
}

// Hash derives the hash of password. A fresh random salt is generated when
// salt is empty.
func (h *Hasher) Hash(password, salt string) (string, string, error) {
	if salt == "" {
		var err error
		salt, err = h.newSalt()
		if err != nil {
			return "", "", err
		}
	}
	return h.derive(password, salt), salt, nil
}

// Verify recomputes the hash with the stored salt and compares in constant time.
func (h *Hasher) Verify(password, hash, salt string) bool {
	if hash == "" || salt == "" {
		return false
	}
	expected, err := hex.DecodeString(hash)
	if err != nil || len(expected) != keyLength {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

func (h *Hasher) derive(password, salt string) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(password), []byte(salt), h.iterations, keyLength, sha256.New))
}

func (h *Hasher) newSalt() (string, error) {
	b := make([]byte, h.saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(errors.New("failed to generate salt"), err)
	}
	return hex.EncodeToString(b), nil
}
