package security

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestHashPool_HashAndVerify(t *testing.T) {
	p := NewHashPool(NewHasher(4), 2)
	ctx := context.Background()

	digest, err := p.Hash(ctx, []byte("pool-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := p.Verify(ctx, []byte("pool-password"), digest); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := p.Verify(ctx, []byte("other"), digest); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Verify wrong password = %v, want ErrPasswordMismatch", err)
	}
}

func TestHashPool_ConcurrentUse(t *testing.T) {
	p := NewHashPool(NewHasher(4), 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Hash(ctx, []byte("concurrent")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Hash: %v", err)
	}
}

func TestHashPool_ContextCancelled(t *testing.T) {
	p := NewHashPool(NewHasher(4), 1)

	// Occupy the only slot so the next acquire has to wait.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		p.slots <- struct{}{}
		close(held)
		<-release
		<-p.slots
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Hash(ctx, []byte("pw")); !errors.Is(err, context.Canceled) {
		t.Errorf("Hash with cancelled ctx = %v, want context.Canceled", err)
	}
	close(release)
}

func TestNewHashPool_ZeroWorkers(t *testing.T) {
	p := NewHashPool(NewHasher(4), 0)
	if cap(p.slots) != 1 {
		t.Errorf("zero workers should clamp to 1, got %d", cap(p.slots))
	}
}
