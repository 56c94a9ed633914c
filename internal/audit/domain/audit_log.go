package domain

import "time"

// AuditLog represents one credential-lifecycle audit event.
type AuditLog struct {
	ID        string
	AccountID string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
