package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is the default Store: a fixed-capacity, size-bounded backend so a long-lived resolver never
// grows its cache without limit.
type LRU struct {
	inner *lru.Cache[string, Entry]
}

// NewLRU constructs an LRU-backed Store with room for capacity entries.
func NewLRU(capacity int) (*LRU, error) {
	inner, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU{inner: inner}, nil
}

func (l *LRU) Get(key string) (Entry, bool) {
	return l.inner.Get(key)
}

func (l *LRU) Set(key string, entry Entry) {
	l.inner.Add(key, entry)
}

func (l *LRU) Purge(key string) {
	l.inner.Remove(key)
}
