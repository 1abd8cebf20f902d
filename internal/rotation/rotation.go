/*
Package rotation implements an ordered, mutable server set: unique membership, mutable order, and
monotonic demotion of a persistently-failing server to the tail.

It borrows its shape from a best-server manager seen elsewhere in this tree - the same
RWMutex-guarded slice plus a map[string]int index for O(1) membership checks, and the same
"non-empty list or construction fails" invariant. What differs is the selection policy: a
latency-tracking manager keeps a single "current best index" and never reorders the backing slice;
smart rotation has no notion of a single best server, it only ever demotes, so Set reorders its own
slice directly instead of layering an index on top of a fixed order.
*/
package rotation

import (
	"errors"
	"sync"
)

// Set is an ordered set of DoH server endpoints with unique membership. The zero value is not
// usable; construct with New.
type Set struct {
	mu      sync.RWMutex
	servers []string
	index   map[string]int
}

// New constructs a Set from servers, de-duplicating while preserving first-seen order. Returns an
// error if servers is empty after de-duplication: the set must always be non-empty once
// constructed.
func New(servers []string) (*Set, error) {
	s := &Set{}
	if err := s.reset(servers); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) reset(servers []string) error {
	deduped := make([]string, 0, len(servers))
	index := make(map[string]int, len(servers))
	for _, name := range servers {
		if _, ok := index[name]; ok {
			continue
		}
		index[name] = len(deduped)
		deduped = append(deduped, name)
	}
	if len(deduped) == 0 {
		return errors.New("rotation: server set must not be empty")
	}
	s.servers = deduped
	s.index = index
	return nil
}

// SetServers replaces the entire ordered set. The non-empty invariant holds after every call:
// SetServers(xs) followed by Order() returns xs in order, after de-duplication.
func (s *Set) SetServers(servers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset(servers)
}

// Order returns a copy of the current server order. Safe for the caller to retain.
func (s *Set) Order() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.servers))
	copy(out, s.servers)
	return out
}

// Len reports how many servers are currently in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.servers)
}

// Demote removes name from its current position and re-appends it to the tail, once all server
// iteration in the current query has completed. A no-op if name is not a member, or if it is
// already the sole/last member (nothing to reorder).
func (s *Set) Demote(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, ok := s.index[name]
	if !ok || len(s.servers) < 2 || ix == len(s.servers)-1 {
		return
	}

	s.servers = append(s.servers[:ix], s.servers[ix+1:]...)
	s.servers = append(s.servers, name)
	for i := ix; i < len(s.servers); i++ {
		s.index[s.servers[i]] = i
	}
}
