package devmail

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	store.Put(ctx, "a@example.com", KindOTP, "123456", expiresAt)

	otp, ok := store.Get(ctx, "a@example.com", KindOTP)
	if !ok {
		t.Fatal("Get should return value after Put")
	}
	if otp != "123456" {
		t.Errorf("otp = %q, want %q", otp, "123456")
	}
}

func TestMemoryStore_Get_ReturnsFalseWhenMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	v, ok := store.Get(ctx, "nobody@example.com", KindOTP)
	if ok {
		t.Error("Get should return false when value is missing")
	}
	if v != "" {
		t.Errorf("value = %q, want empty", v)
	}
}

func TestMemoryStore_Get_ReturnsFalseWhenExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "a@example.com", KindOTP, "123456", time.Now().UTC().Add(5*time.Minute))
	store.nowF = func() time.Time { return time.Now().UTC().Add(10 * time.Minute) }

	if _, ok := store.Get(ctx, "a@example.com", KindOTP); ok {
		t.Error("Get should return false when value is expired")
	}
	// The expired entry is dropped on read.
	store.mu.RLock()
	_, present := store.m[key{"a@example.com", KindOTP}]
	store.mu.RUnlock()
	if present {
		t.Error("expired entry should be deleted")
	}
}

func TestMemoryStore_KindsAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	store.Put(ctx, "a@example.com", KindOTP, "123456", expiresAt)
	store.Put(ctx, "a@example.com", KindVerificationToken, "tok-abc", expiresAt)

	if v, _ := store.Get(ctx, "a@example.com", KindOTP); v != "123456" {
		t.Errorf("otp = %q, want %q", v, "123456")
	}
	if v, _ := store.Get(ctx, "a@example.com", KindVerificationToken); v != "tok-abc" {
		t.Errorf("token = %q, want %q", v, "tok-abc")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put(ctx, "a@example.com", KindOTP, "123456", expiresAt)
			store.Get(ctx, "a@example.com", KindOTP)
		}()
	}
	wg.Wait()

	if v, ok := store.Get(ctx, "a@example.com", KindOTP); !ok || v != "123456" {
		t.Fatalf("value = %q, ok = %v", v, ok)
	}
}

type countingSender struct {
	mu     sync.Mutex
	tokens int
	otps   int
}

func (c *countingSender) SendVerificationToken(context.Context, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens++
	return nil
}

func (c *countingSender) SendOTP(context.Context, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.otps++
	return nil
}

func TestCaptureSender_RecordsAndDelegates(t *testing.T) {
	store := NewMemoryStore()
	next := &countingSender{}
	sender := NewCaptureSender(next, store)
	ctx := context.Background()

	if err := sender.SendVerificationToken(ctx, "a@example.com", "tok-abc"); err != nil {
		t.Fatalf("SendVerificationToken: %v", err)
	}
	if err := sender.SendOTP(ctx, "a@example.com", "123456"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}

	if next.tokens != 1 || next.otps != 1 {
		t.Fatalf("delegation counts = %d/%d, want 1/1", next.tokens, next.otps)
	}
	if v, _ := store.Get(ctx, "a@example.com", KindVerificationToken); v != "tok-abc" {
		t.Errorf("captured token = %q, want %q", v, "tok-abc")
	}
	if v, _ := store.Get(ctx, "a@example.com", KindOTP); v != "123456" {
		t.Errorf("captured otp = %q, want %q", v, "123456")
	}
}
