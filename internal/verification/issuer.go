// Package verification issues and atomically consumes single-use
// email-verification tokens.
package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mymarket/backend/internal/security"
	"mymarket/backend/internal/verification/domain"
)

// Consumption failure modes. Exactly one of N concurrent consumers of the
// same token succeeds; the rest see ErrTokenAlreadyConsumed.
var (
	ErrTokenInvalid         = errors.New("verification token not found")
	ErrTokenExpired         = errors.New("verification token expired")
	ErrTokenAlreadyConsumed = errors.New("verification token already consumed")
	ErrAlreadyVerified      = errors.New("account already verified")
)

// tokenEntropyBytes is the random size of the raw token value (256 bits).
const tokenEntropyBytes = 32

// TokenRepo is the minimal token store needed by the issuer. Consume must be
// atomic: mark the token consumed and the owning account verified in one
// unit, or fail with one of the sentinel errors above.
type TokenRepo interface {
	Create(ctx context.Context, t *domain.Token) error
	Consume(ctx context.Context, tokenHash string, now time.Time) (accountID string, err error)
}

// AccountMarker is the slice of the account store the issuer needs.
type AccountMarker interface {
	MarkPendingVerification(ctx context.Context, id string) error
}

// Issuer creates verification tokens and hands consumption to the store.
type Issuer struct {
	tokens   TokenRepo
	accounts AccountMarker
	ttl      time.Duration // zero means tokens never expire
	now      func() time.Time
}

// NewIssuer returns an Issuer with the given dependencies. ttl of zero
// disables token expiry.
func NewIssuer(tokens TokenRepo, accounts AccountMarker, ttl time.Duration) *Issuer {
	return &Issuer{
		tokens:   tokens,
		accounts: accounts,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh high-entropy token for accountID, persists its
// digest, and moves the account to pending_verification. Returns the raw
// token value for out-of-band delivery. A newly issued token supersedes prior
// ones logically; older unconsumed tokens remain but only one can ever be
// consumed for the account's transition to verified.
func (i *Issuer) Issue(ctx context.Context, accountID string) (string, error) {
	raw, err := security.RandomToken(tokenEntropyBytes)
	if err != nil {
		return "", err
	}
	now := i.now()
	t := &domain.Token{
		ID:        uuid.New().String(),
		AccountID: accountID,
		TokenHash: security.Digest(raw),
		IssuedAt:  now,
	}
	if i.ttl > 0 {
		exp := now.Add(i.ttl)
		t.ExpiresAt = &exp
	}
	if err := i.tokens.Create(ctx, t); err != nil {
		return "", err
	}
	if err := i.accounts.MarkPendingVerification(ctx, accountID); err != nil {
		return "", err
	}
	return raw, nil
}

// Consume redeems a raw token: the matching unconsumed, unexpired token is
// marked consumed and the owning account verified, atomically. Returns the
// account id on success.
func (i *Issuer) Consume(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", ErrTokenInvalid
	}
	return i.tokens.Consume(ctx, security.Digest(raw), i.now())
}
