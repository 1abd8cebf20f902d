/*
Package tangerine is a drop-in DNS-over-HTTPS stub resolver: a client library that performs
hostname and record-type lookups over RFC 8484 HTTPS requests instead of a UDP/TCP resolver
socket, with a TTL-aware cache, server rotation with retry/backoff, and a getaddrinfo-style
lookup algorithm layered on top of raw record queries.

Typical usage:

	r, err := tangerine.New(tangerine.Config{Servers: []string{"1.1.1.1"}})
	if err != nil {
	    ...
	}
	addrs, err := r.Lookup(context.Background(), "example.com", tangerine.LookupOptions{})

r is safe for concurrent use. Call r.Cancel() to abort every in-flight resolution, for example on
shutdown.
*/
package tangerine
