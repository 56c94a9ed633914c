package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mymarket/backend/internal/notification"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a notification recorder backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record appends the notification. The notification must have ID set.
func (r *PostgresRepository) Record(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, account_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.AccountID, string(n.Kind), n.Message, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
