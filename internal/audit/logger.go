// Package audit records credential-lifecycle events (logins, password and
// email changes, verification) as a best-effort security trail.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"mymarket/backend/internal/audit/domain"
	auditrepo "mymarket/backend/internal/audit/repository"
)

// SentinelAccountID is used for events with no resolvable account
// (e.g. login_failure against an unknown email).
const SentinelAccountID = "_anonymous"

// Actions recorded by the HTTP layer.
const (
	ActionRegister       = "account.register"
	ActionLoginSuccess   = "auth.login_success"
	ActionLoginFailure   = "auth.login_failure"
	ActionRefresh        = "auth.refresh"
	ActionVerify         = "account.verify"
	ActionPasswordChange = "credential.password_change"
	ActionEmailChange    = "credential.email_change"
	ActionOTPRequest     = "otp.request"
	ActionOTPConfirm     = "otp.confirm"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes audit events and lists them back per account.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, accountID, action, resource, metadata string)
	History(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, accountID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if accountID == "" {
		accountID = SentinelAccountID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: log event %s failed: %v", action, err)
	}
}

// History returns the account's recorded events, newest first.
func (l *Logger) History(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error) {
	if l.repo == nil {
		return nil, nil
	}
	return l.repo.ListByAccount(ctx, accountID, limit, offset)
}
