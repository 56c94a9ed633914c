package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mymarket/backend/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP code repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert stores the code for the account, replacing any prior one. The
// primary key on account_id enforces at most one live code per account.
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Code) error {
	query := `
		INSERT INTO otp_codes (account_id, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id)
		DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
	`
	if _, err := r.db.ExecContext(ctx, query, c.AccountID, c.CodeHash, c.ExpiresAt, c.CreatedAt); err != nil {
		return fmt.Errorf("upsert otp code: %w", err)
	}
	return nil
}

// Get returns the code row for accountID, or nil if none exists.
func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*domain.Code, error) {
	query := `SELECT account_id, code_hash, expires_at, created_at FROM otp_codes WHERE account_id = $1`
	var c domain.Code
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&c.AccountID, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select otp code: %w", err)
	}
	return &c, nil
}

// Delete removes the code row for accountID only while it still holds the
// given hash. A concurrently issued fresh code survives a stale clear.
func (r *PostgresRepository) Delete(ctx context.Context, accountID, codeHash string) error {
	query := `DELETE FROM otp_codes WHERE account_id = $1 AND code_hash = $2`
	if _, err := r.db.ExecContext(ctx, query, accountID, codeHash); err != nil {
		return fmt.Errorf("delete otp code: %w", err)
	}
	return nil
}

// ConsumeMatching deletes the row only if the stored hash matches and the
// code is unexpired. The conditional DELETE with its affected-row check is
// what makes consumption single-use across concurrent validators and across
// instances.
func (r *PostgresRepository) ConsumeMatching(ctx context.Context, accountID, codeHash string, now time.Time) (bool, error) {
	query := `DELETE FROM otp_codes WHERE account_id = $1 AND code_hash = $2 AND expires_at > $3`
	res, err := r.db.ExecContext(ctx, query, accountID, codeHash, now)
	if err != nil {
		return false, fmt.Errorf("consume otp code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume otp code: %w", err)
	}
	return affected == 1, nil
}

// DeleteExpired removes codes past their expiry. Used by the cleanup worker.
// Returns the number of rows removed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp codes: %w", err)
	}
	return res.RowsAffected()
}
