/*
Package cache implements the TTL-aware, pluggable result cache the Resolver Facade consults before
issuing a network query. The on-read decay math is lifted directly from
internal/dnsutil.ReduceTTL - the same "reduce every TTL by an elapsed duration, floor at a minimum"
calculation, applied both to the Entry's own bookkeeping TTL and, by walking the decoded answer
value, to every per-answer "ttl" field the stored projection carries.
*/
package cache

import (
	"encoding/json"
	"time"

	"github.com/forwardemail/tangerine/internal/dnsutil"
)

// Entry is one cached resolution outcome: the JSON-encoded, already-normalized answer shape
// (whatever a Resolve call would have returned) plus the bookkeeping needed to decay its TTL on
// read.
type Entry struct {
	Value    json.RawMessage `json:"value"`
	TTL      int64           `json:"ttl"`      // seconds, as computed at write time
	StoredAt int64           `json:"storedAt"` // unix seconds
}

// Store is the pluggable cache backend interface. Implementations need not know anything about
// DNS; they only store and retrieve Entry values keyed by an opaque string.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Purge(key string)
}

// Cache wraps a Store with the decay-on-read semantics every backend shares.
type Cache struct {
	store Store
	now   func() time.Time
}

// New wraps store with decay-on-read semantics. A nil store disables caching entirely; Get always
// misses and Set is a no-op, matching the "cache is optional" design of the Resolver Facade.
func New(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Get returns the decayed entry for key, or (_, false) on a miss, an expired entry, or a decayed
// TTL that has reached zero or below.
func (c *Cache) Get(key string) (Entry, bool) {
	if c.store == nil {
		return Entry{}, false
	}
	entry, ok := c.store.Get(key)
	if !ok {
		return Entry{}, false
	}

	elapsed := c.now().Unix() - entry.StoredAt
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := entry.TTL - elapsed
	if remaining <= 0 {
		c.store.Purge(key)
		return Entry{}, false
	}

	entry.TTL = remaining
	entry.StoredAt = c.now().Unix()
	entry.Value = decayAnswerTTLs(entry.Value, elapsed)
	return entry, true
}

// decayAnswerTTLs decays every per-answer "ttl" field nested within raw by elapsed seconds, floored
// at zero. A decode or encode failure returns raw unchanged rather than erroring the whole cache
// read - a cache is never allowed to turn a hit into a hard failure.
func decayAnswerTTLs(raw json.RawMessage, elapsed int64) json.RawMessage {
	if elapsed <= 0 || len(raw) == 0 {
		return raw
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return raw
	}
	dnsutil.ReduceTTL(decoded, elapsed, 0)
	decayed, err := json.Marshal(decoded)
	if err != nil {
		return raw
	}
	return decayed
}

// Set stores value under key with the given TTL in seconds, stamped with the current time.
func (c *Cache) Set(key string, value json.RawMessage, ttl int64) {
	if c.store == nil || ttl < 1 {
		return
	}
	c.store.Set(key, Entry{Value: value, TTL: ttl, StoredAt: c.now().Unix()})
}

// Purge removes any cached entry for key, used when purgeCache is requested on a call.
func (c *Cache) Purge(key string) {
	if c.store == nil {
		return
	}
	c.store.Purge(key)
}
