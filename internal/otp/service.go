// Package otp generates and validates short-lived numeric one-time passwords.
package otp

import (
	"context"
	"errors"
	"time"

	"mymarket/backend/internal/otp/domain"
	"mymarket/backend/internal/security"
)

// Validation failure modes.
var (
	ErrNoCodeIssued = errors.New("no one-time password issued")
	ErrCodeExpired  = errors.New("one-time password expired")
	ErrCodeMismatch = errors.New("one-time password mismatch")
)

// CodeRepo is the minimal code store needed by the service. ConsumeMatching
// must be an atomic conditional delete so a code validates at most once even
// under concurrent attempts.
type CodeRepo interface {
	// Upsert stores the code, replacing any prior code for the account.
	Upsert(ctx context.Context, c *domain.Code) error
	// Get returns the live code row for accountID, or nil if none.
	Get(ctx context.Context, accountID string) (*domain.Code, error)
	// Delete removes the code row only if its hash still matches, so a stale
	// clear cannot wipe a code issued after the caller's read.
	Delete(ctx context.Context, accountID, codeHash string) error
	// ConsumeMatching deletes the row only if the hash matches and the code is
	// unexpired at now. Reports whether a row was deleted.
	ConsumeMatching(ctx context.Context, accountID, codeHash string, now time.Time) (bool, error)
}

// Service issues and validates one-time passwords.
type Service struct {
	codes  CodeRepo
	length int
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a Service generating codes of the given digit length
// that expire after ttl.
func NewService(codes CodeRepo, length int, ttl time.Duration) *Service {
	if length <= 0 {
		length = 6
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		codes:  codes,
		length: length,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate produces a fresh numeric code for accountID and stores its digest,
// overwriting any prior code. Returns the raw code for out-of-band delivery
// and its expiry.
func (s *Service) Generate(ctx context.Context, accountID string) (string, time.Time, error) {
	code, err := security.RandomDigits(s.length)
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	c := &domain.Code{
		AccountID: accountID,
		CodeHash:  security.Digest(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.codes.Upsert(ctx, c); err != nil {
		return "", time.Time{}, err
	}
	return code, c.ExpiresAt, nil
}

// Validate checks code against the live code for accountID. On success the
// code is cleared atomically so it can never validate twice. A mismatch does
// not clear the stored code, so further attempts against a still-valid code
// remain possible until expiry. An expired code is cleared as a side effect.
func (s *Service) Validate(ctx context.Context, accountID, code string) error {
	stored, err := s.codes.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrNoCodeIssued
	}
	now := s.now()
	if stored.Expired(now) {
		if err := s.codes.Delete(ctx, accountID, stored.CodeHash); err != nil {
			return err
		}
		return ErrCodeExpired
	}
	if !security.DigestEqual(code, stored.CodeHash) {
		return ErrCodeMismatch
	}
	consumed, err := s.codes.ConsumeMatching(ctx, accountID, stored.CodeHash, now)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost a race with a concurrent validation or the code expired
		// between the read and the delete.
		return ErrNoCodeIssued
	}
	return nil
}
