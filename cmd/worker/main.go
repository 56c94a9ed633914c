// Worker periodically purges consumed or expired verification tokens and
// expired one-time passwords. Interval comes from CLEANUP_INTERVAL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mymarket/backend/internal/config"
	"mymarket/backend/internal/db"
	otprepo "mymarket/backend/internal/otp/repository"
	verificationrepo "mymarket/backend/internal/verification/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	tokens := verificationrepo.NewPostgresRepository(conn)
	codes := otprepo.NewPostgresRepository(conn)

	interval := cfg.CleanupEvery()
	log.Printf("worker: purging every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		purge(ctx, tokens, codes)
		select {
		case <-ctx.Done():
			log.Println("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}

func purge(ctx context.Context, tokens *verificationrepo.PostgresRepository, codes *otprepo.PostgresRepository) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	now := time.Now().UTC()
	if n, err := tokens.DeleteStale(runCtx, now); err != nil {
		log.Printf("worker: token purge failed: %v", err)
	} else if n > 0 {
		log.Printf("worker: purged %d verification tokens", n)
	}
	if n, err := codes.DeleteExpired(runCtx, now); err != nil {
		log.Printf("worker: otp purge failed: %v", err)
	} else if n > 0 {
		log.Printf("worker: purged %d one-time passwords", n)
	}
}
