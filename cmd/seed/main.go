// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev account (dev@example.com) already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"mymarket/backend/internal/config"
	"mymarket/backend/internal/db"
	"mymarket/backend/internal/security"
)

const (
	devEmail       = "dev@example.com"
	devPassword    = "password123"
	sellerEmail    = "seller@example.com"
	sellerPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	var exists bool
	err = conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, devEmail,
	).Scan(&exists)
	if err != nil {
		log.Fatalf("seed: check dev account: %v", err)
	}
	if exists {
		log.Println("seed: dev account already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)

	if err := insertAccount(ctx, conn, hasher, devEmail, devPassword, "Dev", "Buyer", "buyer"); err != nil {
		log.Fatalf("seed: %v", err)
	}
	if err := insertAccount(ctx, conn, hasher, sellerEmail, sellerPassword, "Dev", "Seller", "seller"); err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Printf("seed: created verified accounts %s and %s (password %q)", devEmail, sellerEmail, devPassword)
}

// insertAccount creates a pre-verified account so seeded logins work without
// a mail round trip.
func insertAccount(ctx context.Context, conn *sql.DB, hasher *security.Hasher, email, password, first, last, role string) error {
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		return fmt.Errorf("hash %s: %w", email, err)
	}
	now := time.Now().UTC()
	_, err = conn.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, first_name, last_name, bio, role, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, 'verified', $7, $7)`,
		uuid.New().String(), email, hash, first, last, role, now,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", email, err)
	}
	return nil
}
