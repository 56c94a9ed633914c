package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"mymarket/backend/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name, bio, role, verification_status, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the account with the given email, or nil if not found.
// The caller is responsible for normalizing the email first.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// Create persists the account. The account must have ID set; it is not
// assigned by this method. Returns ErrDuplicateEmail on a unique violation.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Bio,
		string(a.Role), string(a.VerificationStatus), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// UpdateEmail replaces the stored email. Returns ErrDuplicateEmail when the
// new email collides with another account.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	query := `UPDATE accounts SET email = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, email, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

// MarkPendingVerification moves an unverified account to pending_verification.
// The conditional WHERE keeps Verified terminal.
func (r *PostgresRepository) MarkPendingVerification(ctx context.Context, id string) error {
	query := `
		UPDATE accounts SET verification_status = $2, updated_at = $3
		WHERE id = $1 AND verification_status = $4
	`
	_, err := r.db.ExecContext(ctx, query, id,
		string(domain.StatusPendingVerification), time.Now().UTC(), string(domain.StatusUnverified))
	if err != nil {
		return fmt.Errorf("mark pending verification: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var role, status string
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Bio, &role, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Role = domain.Role(role)
	a.VerificationStatus = domain.VerificationStatus(status)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
