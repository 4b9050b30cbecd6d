package fit

import (
	"context"
	"sync"
)

// Ticket identifies one fit started through Latest
type Ticket uint64

// Latest keeps the result of the most recently started fit. Starting a new
// fit cancels the previous one, and a result committed under an older
// ticket is dropped.
type Latest struct {
	mu      sync.Mutex
	gen     Ticket
	cancel  context.CancelFunc
	current *Result
}

// Begin starts a new fit and supersedes any in flight
func (l *Latest) Begin(ctx context.Context) (context.Context, Ticket) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}

	fitCtx, cancel := context.WithCancel(ctx)
	l.gen++
	l.cancel = cancel
	return fitCtx, l.gen
}

// Commit stores r if t is still the newest ticket and reports whether it did
func (l *Latest) Commit(t Ticket, r Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t != l.gen {
		return false
	}
	l.current = &r
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// Abandon releases the context of t without storing a result
func (l *Latest) Abandon(t Ticket) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t == l.gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Current returns the newest committed result
func (l *Latest) Current() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return Result{}, false
	}
	return *l.current, true
}

// Run executes fn as a new fit and commits its result. The returned bool is
// false when a newer fit started before fn finished; the result is then
// stale and has not been stored.
func (l *Latest) Run(ctx context.Context, fn func(ctx context.Context) (Result, error)) (Result, bool, error) {
	fitCtx, t := l.Begin(ctx)
	r, err := fn(fitCtx)
	if err != nil {
		l.Abandon(t)
		return Result{}, false, err
	}
	return r, l.Commit(t, r), nil
}
