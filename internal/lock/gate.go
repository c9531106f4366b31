package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when another holder owns the key.
var ErrBusy = errors.New("lock is held")

// Gate grants exclusive, non-blocking ownership of a key. It serializes turns
// so that a conversation never has two generation requests in flight.
type Gate interface {
	// TryAcquire returns a release func, or ErrBusy without waiting.
	TryAcquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGate is a process-local Gate.
type MemoryGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGate creates an empty in-process gate.
func NewMemoryGate() *MemoryGate {
	return &MemoryGate{held: make(map[string]struct{})}
}

func (g *MemoryGate) TryAcquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrBusy
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
