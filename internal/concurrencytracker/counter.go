// Package concurrencytracker tracks how many concurrent operations are in flight and reports the
// peak seen over a reporting period:
//
//	var inFlight concurrencytracker.Counter
//
//	func resolve() {
//		inFlight.Add()
//		defer inFlight.Done()
//		... do the work
//	}
//
//	... elsewhere ...
//	fmt.Println("peak concurrency", inFlight.Peak(true))
package concurrencytracker

import "sync"

// Counter is a concurrency-safe in-flight/peak pair. The zero value is ready to use.
type Counter struct {
	mu      sync.Mutex
	current int // count of Add calls not yet matched by Done
	peak    int // highest current has ever reached
}

// Add records one more in-flight operation and reports whether this call pushed the peak higher.
func (c *Counter) Add() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current++
	if c.current <= c.peak {
		return false
	}
	c.peak = c.current
	return true
}

// Done records that one in-flight operation finished. Calling Done without a preceding Add panics.
func (c *Counter) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == 0 {
		panic("concurrencytracker: Done called without a matching Add")
	}
	c.current--
}

// Peak returns the highest in-flight count observed so far. When reset is true, the peak is rebased
// to the current in-flight count, so the next Peak call reports only the peak since this call; the
// rebase takes effect after this call's return value is computed.
func (c *Counter) Peak(reset bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	peak := c.peak
	if reset {
		c.peak = c.current
	}
	return peak
}
