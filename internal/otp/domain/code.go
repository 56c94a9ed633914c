package domain

import "time"

// Code is a short-lived one-time password bound to an account. Only the
// SHA-256 digest of the numeric code is stored; at most one live code exists
// per account (a new code overwrites the previous one).
type Code struct {
	AccountID string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *Code) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
