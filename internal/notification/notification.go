// Package notification records account-facing events. Delivery (push, email)
// is a downstream concern; the engine only appends the record.
package notification

import (
	"context"
	"time"
)

// Kind labels why a notification exists.
type Kind string

const (
	KindSignUp          Kind = "SIGN_UP"
	KindPasswordChanged Kind = "PASSWORD_CHANGED"
	KindEmailChanged    Kind = "EMAIL_CHANGED"
)

// Notification is a single account-facing event record.
type Notification struct {
	ID        string
	AccountID string
	Kind      Kind
	Message   string
	CreatedAt time.Time
}

// Recorder appends notifications. Implementations must not block on delivery.
type Recorder interface {
	Record(ctx context.Context, n *Notification) error
}
