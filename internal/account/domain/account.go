package domain

import (
	"errors"
	"strings"
	"time"
)

// Account is the core identity record. The password hash is an opaque bcrypt
// digest; the plaintext is never stored.
type Account struct {
	ID                 string
	Email              string // stored lowercase
	PasswordHash       string
	FirstName          string
	LastName           string
	Bio                string
	Role               Role
	VerificationStatus VerificationStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// VerificationStatus tracks email verification. Verified is terminal; no
// transition returns an account to Unverified.
type VerificationStatus string

const (
	// StatusUnverified is the state at account creation, before any token is issued.
	StatusUnverified VerificationStatus = "unverified"
	// StatusPendingVerification means a verification token has been issued but not consumed.
	StatusPendingVerification VerificationStatus = "pending_verification"
	// StatusVerified means a verification token was successfully consumed.
	StatusVerified VerificationStatus = "verified"
)

// NormalizeEmail lowercases and trims an email for case-insensitive uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.Email != NormalizeEmail(a.Email) {
		return errors.New("email must be normalized before persistence")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if a.Role == "" {
		a.Role = RoleBuyer
	}
	if a.VerificationStatus == "" {
		a.VerificationStatus = StatusUnverified
	}
	return nil
}

// Verified reports whether the account has completed email verification.
func (a *Account) Verified() bool {
	return a.VerificationStatus == StatusVerified
}
