// Package txscope marks a context as running inside a write transaction and
// collects the side effects that must wait for its commit. It lets storage
// adapters that do not share a driver, such as the Postgres repositories and
// the Redis tutor cache, agree on transaction boundaries.
package txscope

import (
	"context"
	"sync"
)

type scopeKey struct{}

// Scope is the commit-time state of one transaction.
type Scope struct {
	mu          sync.Mutex
	afterCommit []func(context.Context)
	done        bool
}

// Begin returns a context bound to a new Scope.
func Begin(ctx context.Context) (context.Context, *Scope) {
	s := &Scope{}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// Active reports whether ctx runs inside an uncommitted transaction.
func Active(ctx context.Context) bool {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.done
}

// AfterCommit queues fn to run once the transaction bound to ctx commits.
// It returns false when no transaction is open; the caller then runs fn
// itself. Queued callbacks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func(context.Context)) bool {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.afterCommit = append(s.afterCommit, fn)
	return true
}

// Committed runs the queued callbacks in order with ctx, which should be
// the context the transaction was started from.
func (s *Scope) Committed(ctx context.Context) {
	s.mu.Lock()
	fns := s.afterCommit
	s.afterCommit = nil
	s.done = true
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

// Discard drops the queued callbacks after a rollback.
func (s *Scope) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterCommit = nil
	s.done = true
}
