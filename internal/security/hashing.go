package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Verify when the password does not match the digest.
var ErrPasswordMismatch = errors.New("password mismatch")

// ErrInvalidCredentialFormat is returned by Verify when the stored digest is
// not a valid bcrypt hash. Callers treat this as data corruption, not a bad password.
var ErrInvalidCredentialFormat = errors.New("invalid credential format")

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt digest of password, suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify checks password against the stored digest in constant time.
// Returns nil on match, ErrPasswordMismatch when the password is wrong, and
// ErrInvalidCredentialFormat when digest is not a parseable bcrypt hash.
func (h *Hasher) Verify(password []byte, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), password)
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return ErrInvalidCredentialFormat
}
