package security

import "context"

// HashPool serializes bcrypt work through a bounded set of slots so that
// hashing, which is deliberately slow, cannot occupy every request-serving
// goroutine at once. Acquiring a slot respects the caller's context deadline.
type HashPool struct {
	hasher *Hasher
	slots  chan struct{}
}

// NewHashPool returns a HashPool running at most workers concurrent bcrypt
// operations on top of the given Hasher.
func NewHashPool(hasher *Hasher, workers int) *HashPool {
	if workers <= 0 {
		workers = 1
	}
	return &HashPool{
		hasher: hasher,
		slots:  make(chan struct{}, workers),
	}
}

// Hash produces a bcrypt digest of password, waiting for a free slot first.
// Returns the context error if ctx is done before a slot frees up.
func (p *HashPool) Hash(ctx context.Context, password []byte) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	defer p.release()
	return p.hasher.Hash(password)
}

// Verify checks password against digest, waiting for a free slot first.
// Returns ErrPasswordMismatch, ErrInvalidCredentialFormat, or the context error.
func (p *HashPool) Verify(ctx context.Context, password []byte, digest string) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	return p.hasher.Verify(password, digest)
}

func (p *HashPool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *HashPool) release() { <-p.slots }
