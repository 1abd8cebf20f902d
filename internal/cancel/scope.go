/*
Package cancel models a tree of cancellation handles: a cancellable scope with a single one-way
transition from active to cancelled, optionally parented by another scope so that cancelling the
parent cancels every child synchronously.

A Scope is a thin wrapper over context.Context/context.CancelFunc - Go's own cancellation
primitive already gives the parent/child propagation a resolver needs, so there's no need to hand
roll a notification tree.
*/
package cancel

import (
	"context"
	"sync"
	"time"
)

// Scope is one cancellation handle. The zero value is not usable; construct with New or
// WithTimeout.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a root cancellation scope with no deadline.
func New(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// WithTimeout creates a cancellation scope that transitions to cancelled no later than d from now,
// used by the Query Engine for each attempt's exponentially-doubling deadline.
func WithTimeout(parent context.Context, d time.Duration) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, d)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Child derives a new scope parented by s; cancelling s cancels every descendant.
func (s *Scope) Child() *Scope {
	return New(s.ctx)
}

// Context returns the context.Context backing this scope, suitable for passing to anything that
// takes a context (http.Request, cache lookups, and so on).
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Cancel transitions the scope (and every descendant) from active to cancelled. Calling Cancel
// more than once is safe and a no-op after the first call, matching context.CancelFunc semantics.
func (s *Scope) Cancel() {
	s.cancel()
}

// Done reports whether the scope has transitioned to cancelled, either directly or via a parent.
func (s *Scope) Done() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Err returns the reason the scope transitioned to cancelled, or nil while still active.
func (s *Scope) Err() error {
	return s.ctx.Err()
}

// Registry is the resolver-owned set of currently-active cancellation scopes: cancelling the
// registry transitions every member to cancelled and empties the set.
type Registry struct {
	mu     sync.Mutex
	active map[*Scope]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[*Scope]struct{})}
}

// Register adds s to the active set. Callers must call Deregister when the scope settles
// (succeeds, fails, or is cancelled) regardless of outcome.
func (r *Registry) Register(s *Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[s] = struct{}{}
}

// Deregister removes s from the active set. Safe to call more than once.
func (r *Registry) Deregister(s *Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, s)
}

// CancelAll transitions every currently-active scope to cancelled and empties the set. Subsequent
// resolutions register fresh scopes.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	scopes := make([]*Scope, 0, len(r.active))
	for s := range r.active {
		scopes = append(scopes, s)
	}
	r.active = make(map[*Scope]struct{})
	r.mu.Unlock()

	for _, s := range scopes {
		s.Cancel()
	}
}

// Len reports the number of currently-active scopes, used by tests to assert the active-handle
// set is empty after CancelAll.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
