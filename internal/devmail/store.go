// Package devmail captures outbound verification tokens and one-time
// passwords by email for dev-only retrieval (GET /dev/credentials). Not used
// in production.
package devmail

import (
	"context"
	"sync"
	"time"

	"mymarket/backend/internal/mail"
)

// Store holds the last captured credentials by email.
type Store interface {
	// Put stores value of the given kind for email until expiresAt.
	Put(ctx context.Context, email, kind, value string, expiresAt time.Time)
	// Get returns the value of the given kind for email if present and not
	// expired. Returns ok false if missing or expired.
	Get(ctx context.Context, email, kind string) (value string, ok bool)
}

// Credential kinds captured by the store.
const (
	KindVerificationToken = "verification_token"
	KindOTP               = "otp"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type key struct {
	email string
	kind  string
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[key]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[key]entry),
		nowF: time.Now().UTC,
	}
}

// Put stores value for email until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, email, kind, value string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key{email, kind}] = entry{value: value, expiresAt: expiresAt}
}

// Get returns the value for email if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, email, kind string) (string, bool) {
	k := key{email, kind}
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// captureTTL bounds how long captured credentials stay retrievable.
const captureTTL = time.Hour

// CaptureSender wraps a mail.Sender and records every delivered credential in
// a Store before delegating. Wire it only in non-production environments.
type CaptureSender struct {
	next  mail.Sender
	store Store
}

// NewCaptureSender returns a CaptureSender recording into store.
func NewCaptureSender(next mail.Sender, store Store) *CaptureSender {
	return &CaptureSender{next: next, store: store}
}

// SendVerificationToken records the token, then delegates.
func (s *CaptureSender) SendVerificationToken(ctx context.Context, email, token string) error {
	s.store.Put(ctx, email, KindVerificationToken, token, time.Now().UTC().Add(captureTTL))
	return s.next.SendVerificationToken(ctx, email, token)
}

// SendOTP records the code, then delegates.
func (s *CaptureSender) SendOTP(ctx context.Context, email, code string) error {
	s.store.Put(ctx, email, KindOTP, code, time.Now().UTC().Add(captureTTL))
	return s.next.SendOTP(ctx, email, code)
}
