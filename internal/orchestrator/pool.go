// internal/orchestrator/pool.go
package orchestrator

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many browser-driving executions may run concurrently.
// Acquisition blocks (queues) rather than rejects when the pool is full.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a pool with the given capacity.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(capacity))}
}

// Run executes fn while holding one pool slot. It blocks until a slot is
// available or the context is cancelled.
func (p *Pool) Run(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}
