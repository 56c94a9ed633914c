package repository

import (
	"context"
	"errors"

	"mymarket/backend/internal/account/domain"
)

// ErrDuplicateEmail is returned when a create or email change collides with an
// existing account. The store's unique index is the source of truth.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines persistence for accounts.
type Repository interface {
	// GetByID returns the account for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByEmail returns the account with the given (normalized) email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create persists the account. The account must have ID set.
	// Returns ErrDuplicateEmail when the email is already taken.
	Create(ctx context.Context, a *domain.Account) error
	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	// UpdateEmail replaces the stored email. Returns ErrDuplicateEmail when taken.
	UpdateEmail(ctx context.Context, id, email string) error
	// MarkPendingVerification moves an unverified account to pending_verification.
	// No-op when the account is already pending or verified.
	MarkPendingVerification(ctx context.Context, id string) error
}
