package audit

import (
	"context"
	"errors"
	"testing"

	"mymarket/backend/internal/audit/domain"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	ipExtractor := func(ctx context.Context) string {
		return "192.168.1.1"
	}
	logger := NewLogger(repo, ipExtractor)
	ctx := context.Background()

	logger.LogEvent(ctx, "acct-1", ActionLoginSuccess, "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.AccountID != "acct-1" {
		t.Errorf("account_id = %q, want %q", entry.AccountID, "acct-1")
	}
	if entry.Action != ActionLoginSuccess {
		t.Errorf("action = %q, want %q", entry.Action, ActionLoginSuccess)
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.ID == "" {
		t.Error("expected generated id")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestLogger_LogEvent_EmptyAccountUsesSentinel(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "", ActionLoginFailure, "session", "email=unknown")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].AccountID != SentinelAccountID {
		t.Errorf("account_id = %q, want %q", repo.entries[0].AccountID, SentinelAccountID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
}

func TestLogger_LogEvent_RepoErrorDoesNotPanic(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	logger := NewLogger(repo, nil)

	// Best-effort: the failure is swallowed.
	logger.LogEvent(context.Background(), "acct-1", ActionRegister, "account", "")

	if len(repo.entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(repo.entries))
	}
}

func TestLogger_NilRepoIsNoop(t *testing.T) {
	logger := NewLogger(nil, nil)
	logger.LogEvent(context.Background(), "acct-1", ActionRegister, "account", "")

	entries, err := logger.History(context.Background(), "acct-1", 10, 0)
	if err != nil || entries != nil {
		t.Fatalf("History on nil repo = %v, %v; want nil, nil", entries, err)
	}
}

func TestLogger_HistoryReturnsOwnEventsOnly(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)
	ctx := context.Background()

	logger.LogEvent(ctx, "acct-1", ActionLoginSuccess, "session", "")
	logger.LogEvent(ctx, "acct-2", ActionLoginSuccess, "session", "")
	logger.LogEvent(ctx, "acct-1", ActionPasswordChange, "credential", "")

	entries, err := logger.History(ctx, "acct-1", 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.AccountID != "acct-1" {
			t.Fatalf("entry for %q leaked into acct-1 history", e.AccountID)
		}
	}
	// Newest first.
	if entries[0].Action != ActionPasswordChange {
		t.Fatalf("first entry action = %q, want %q", entries[0].Action, ActionPasswordChange)
	}
}
