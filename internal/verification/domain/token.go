package domain

import "time"

// Token is a single-use email-verification credential. Only the SHA-256
// digest of the raw value is stored; the raw value is returned once at issue
// time for out-of-band delivery.
type Token struct {
	ID        string
	AccountID string
	TokenHash string
	Consumed  bool
	IssuedAt  time.Time
	ExpiresAt *time.Time // nil means the token never expires
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
