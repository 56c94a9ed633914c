package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "mymarket/backend/internal/account/repository"
	"mymarket/backend/internal/audit"
	auditrepo "mymarket/backend/internal/audit/repository"
	"mymarket/backend/internal/config"
	"mymarket/backend/internal/db"
	"mymarket/backend/internal/devmail"
	identityservice "mymarket/backend/internal/identity/service"
	"mymarket/backend/internal/mail"
	notificationrepo "mymarket/backend/internal/notification/repository"
	"mymarket/backend/internal/otp"
	otprepo "mymarket/backend/internal/otp/repository"
	"mymarket/backend/internal/security"
	"mymarket/backend/internal/server"
	"mymarket/backend/internal/telemetry/otel"
	"mymarket/backend/internal/verification"
	verificationrepo "mymarket/backend/internal/verification/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "mymarket-identity", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	tokens := verificationrepo.NewPostgresRepository(conn)
	codes := otprepo.NewPostgresRepository(conn)
	notifications := notificationrepo.NewPostgresRepository(conn)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(conn), server.ClientIPFromContext)

	hashPool := security.NewHashPool(security.NewHasher(cfg.BcryptCost), cfg.HashWorkers)
	sessionTokens := security.NewTokenProvider(
		[]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret),
		cfg.AccessTTL(), cfg.RefreshTTL(),
	)

	issuer := verification.NewIssuer(tokens, accounts, cfg.VerificationTTL())
	otpService := otp.NewService(codes, cfg.OTPLength, cfg.OTPExpiry())

	// Outside production, captured tokens and codes are retrievable via the
	// dev credentials route.
	var sender mail.Sender = mail.LogSender{}
	var devStore devmail.Store
	if cfg.Env != "production" {
		store := devmail.NewMemoryStore()
		sender = devmail.NewCaptureSender(sender, store)
		devStore = store
	}

	svc := identityservice.NewLifecycleService(
		accounts, issuer, otpService, hashPool,
		sessionTokens, notifications, sender,
	)

	srv, err := server.New(cfg.HTTPAddr, server.NewHandler(svc, conn, auditor), sessionTokens, devStore)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.Run(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
