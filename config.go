package tangerine

import (
	"io"
	"time"

	"github.com/forwardemail/tangerine/internal/cache"
	"github.com/forwardemail/tangerine/internal/constants"
	"github.com/forwardemail/tangerine/internal/dnserr"
	"github.com/forwardemail/tangerine/internal/hostsfile"
	"github.com/forwardemail/tangerine/internal/transport"

	"golang.org/x/net/idna"
)

// Config is passed to New(). A plain struct of public fields with defaults applied in New(), in
// the same shape as a DoH resolver's Config elsewhere in this tree, generalized with a functional
// Option layer since this is a library surface rather than a single CLI's flag set.
type Config struct {
	Servers []string // DoH server endpoints, host[:port] form (no scheme, no path)

	Tries        int           // Attempts per server per query
	Timeout      time.Duration // Base per-attempt timeout before doubling
	Concurrency  int           // Worker-pool size for ResolveAny; Lookup always issues its A+AAAA pair together
	UseGetMethod bool          // HTTP GET instead of the default POST
	Protocol     string        // "https" (default) or "http", for tests against a local server
	SmartRotate  bool          // Demote a persistently-failing server to the tail of rotation

	GeneratePadding bool // RFC8467 query padding

	Cache         cache.Store // nil gets the default LRU backend; WithCache(nil) disables caching
	MaxTTLSeconds int64       // Cache entries are never stored with a TTL above this

	HostsPath string // Path to a hosts file; empty uses the platform default
	NoHosts   bool   // Skip loading any hosts file at all

	Doer transport.Doer // HTTP client; nil builds a default h2-capable client

	// Trace, when set, receives a compact "Q:"/"R:" line for every query sent and response
	// received, in the same transaction-logging style a DoH server logs inbound/outbound
	// traffic.
	Trace io.Writer

	// TLS trust configuration for the default client; ignored when Doer is set.
	InsecureSkipVerify bool     // Skip upstream certificate verification; for tests only
	UseSystemCAs       bool     // Seed the root pool with the system trust store
	CACertFiles        []string // Additional PEM root CA files to trust
	ClientCertFile     string   // Client certificate to present, for mTLS upstreams
	ClientKeyFile      string   // Must be set together with ClientCertFile
}

// Option mutates a Config. Options are applied in New() after defaults but before validation.
type Option func(*Config)

// WithServers overrides the server list.
func WithServers(servers ...string) Option {
	return func(c *Config) { c.Servers = servers }
}

// WithCache installs a cache backend.
func WithCache(store cache.Store) Option {
	return func(c *Config) { c.Cache = store }
}

// WithDoer installs a custom HTTP client, typically a test mock.
func WithDoer(doer transport.Doer) Option {
	return func(c *Config) { c.Doer = doer }
}

// applyDefaults fills in zero-valued fields with this package's defaults, grounded on
// internal/constants' Default* fields.
func (c *Config) applyDefaults() {
	consts := constants.Get()
	if c.Tries < 1 {
		c.Tries = int(consts.DefaultTries)
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Duration(consts.DefaultTimeoutMs) * time.Millisecond
	}
	if c.Concurrency < 1 {
		c.Concurrency = int(consts.DefaultConcurrency)
	}
	if c.Protocol == "" {
		c.Protocol = "https"
	}
	if c.MaxTTLSeconds <= 0 {
		c.MaxTTLSeconds = int64(consts.DefaultMaxTTLSeconds)
	}
	if c.Cache == nil {
		if l, err := cache.NewLRU(consts.DefaultCacheCapacity); err == nil {
			c.Cache = l
		}
	}
}

// validate rejects an unusable Config early, mirroring the way a DoH resolver constructor
// validates its ECS settings before doing anything else.
func (c *Config) validate() error {
	if len(c.Servers) == 0 {
		return &dnserr.Error{Code: dnserr.ErrMissingArgs, Message: "tangerine: Config.Servers must not be empty"}
	}
	if c.Protocol != "https" && c.Protocol != "http" {
		return &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Message: "tangerine: Config.Protocol must be https or http"}
	}
	return nil
}

// idnaEncode ASCII-encodes name per IDNA, per the "name is IDNA-encoded to ASCII" requirement on
// every query; names that are already ASCII pass through unchanged.
func idnaEncode(name string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &dnserr.Error{Code: dnserr.BadName, Message: "tangerine: invalid name " + name + ": " + err.Error()}
	}
	return ascii, nil
}

func loadHosts(c Config) (*hostsfile.Table, error) {
	if c.NoHosts {
		return hostsfile.Empty(), nil
	}
	path := c.HostsPath
	if path == "" {
		path = hostsfile.DefaultPath
	}
	table, err := hostsfile.Load(path)
	if err != nil {
		return hostsfile.Empty(), nil // Missing/unreadable hosts file degrades to "no rules", not a hard failure
	}
	return table, nil
}
