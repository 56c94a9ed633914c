package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mymarket/backend/internal/account/domain"
	"mymarket/backend/internal/verification"
	vdomain "mymarket/backend/internal/verification/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a verification token repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the token. The token must have ID and TokenHash set.
func (r *PostgresRepository) Create(ctx context.Context, t *vdomain.Token) error {
	query := `
		INSERT INTO verification_tokens (id, account_id, token_hash, consumed, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.AccountID, t.TokenHash, t.Consumed, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}
	return nil
}

// Consume marks the token matching tokenHash consumed and the owning account
// verified in one transaction. The conditional UPDATE on the token row is the
// arbiter under concurrency: the row lock serializes racing consumers and the
// affected-row check tells the losers apart from winners.
func (r *PostgresRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin consume tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var accountID string
	claim := `
		UPDATE verification_tokens SET consumed = TRUE
		WHERE token_hash = $1 AND NOT consumed AND (expires_at IS NULL OR expires_at > $2)
		RETURNING account_id
	`
	err = tx.QueryRowContext(ctx, claim, tokenHash, now).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", r.classifyFailure(ctx, tokenHash, now)
		}
		return "", fmt.Errorf("claim verification token: %w", err)
	}

	verify := `
		UPDATE accounts SET verification_status = $2, updated_at = $3
		WHERE id = $1 AND verification_status <> $2
	`
	res, err := tx.ExecContext(ctx, verify, accountID, string(domain.StatusVerified), now)
	if err != nil {
		return "", fmt.Errorf("mark account verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("mark account verified: %w", err)
	}
	if affected == 0 {
		// Account already verified: roll back so the stale token is not
		// silently burned, and report the replay explicitly.
		return "", verification.ErrAlreadyVerified
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit consume tx: %w", err)
	}
	return accountID, nil
}

// classifyFailure runs outside the claiming UPDATE to tell the caller why the
// token could not be consumed.
func (r *PostgresRepository) classifyFailure(ctx context.Context, tokenHash string, now time.Time) error {
	var consumed bool
	var expiresAt sql.NullTime
	query := `SELECT consumed, expires_at FROM verification_tokens WHERE token_hash = $1`
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&consumed, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return verification.ErrTokenInvalid
		}
		return fmt.Errorf("inspect verification token: %w", err)
	}
	if consumed {
		return verification.ErrTokenAlreadyConsumed
	}
	if expiresAt.Valid && !expiresAt.Time.After(now) {
		return verification.ErrTokenExpired
	}
	return verification.ErrTokenInvalid
}

// DeleteStale removes consumed tokens and tokens past their expiry. Used by
// the cleanup worker. Returns the number of rows removed.
func (r *PostgresRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE consumed OR (expires_at IS NOT NULL AND expires_at <= $1)
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete stale verification tokens: %w", err)
	}
	return res.RowsAffected()
}
