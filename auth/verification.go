package auth

import (
	"sync"
)

// registry tracks outstanding email challenges. Each entry is a
// one-shot: it either gets resolved by exactly one Verify call, or the
// waiting flow expires it. Pending entries are independent; resolving
// one never affects another.
type registry struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
}

func newRegistry() *registry {
	return &registry{
		pending: make(map[string]chan struct{}),
	}
}

// register creates a pending entry under key and returns the channel
// that closes when the challenge is resolved.
func (r *registry) register(key string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	done := make(chan struct{})
	r.pending[key] = done
	return done
}

// resolve completes the challenge under key. The entry is removed
// before the channel closes, so a second resolve for the same key
// reports false.
func (r *registry) resolve(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	done, ok := r.pending[key]
	if !ok {
		return false
	}
	delete(r.pending, key)
	close(done)
	return true
}

// expire discards the entry under key without resolving it. Called by
// the waiting flow on timeout or cancellation.
func (r *registry) expire(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, key)
}
