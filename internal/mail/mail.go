// Package mail defines the out-of-band delivery collaborator. Verification
// tokens and one-time passwords are handed to a Sender; rendering and
// transport live outside the engine.
package mail

import (
	"context"
	"log"
)

// Sender delivers credentials to an account's email address.
type Sender interface {
	SendVerificationToken(ctx context.Context, email, token string) error
	SendOTP(ctx context.Context, email, code string) error
}

// LogSender writes deliveries to the process log. Used in development and as
// a stand-in until a real mail transport is wired.
type LogSender struct{}

// SendVerificationToken logs the delivery. The token itself is not logged.
func (LogSender) SendVerificationToken(ctx context.Context, email, token string) error {
	log.Printf("mail: verification token issued for %s (len=%d)", email, len(token))
	return nil
}

// SendOTP logs the delivery. The code itself is not logged.
func (LogSender) SendOTP(ctx context.Context, email, code string) error {
	log.Printf("mail: one-time password issued for %s", email)
	return nil
}
