/*
Package constants provides common values used across all tangerine packages. Usage is to call the
global Get() function which returns the Constants by value ensuring that any modifications made
(accidental or otherwise) will not affect other modules when they call Get().

Typically usage:

    consts := constants.Get()
    fmt.Println("I am", consts.PackageName, "based on", consts.RFC)

The primary reason for making this a constructed struct rather than the more typical const () block
is so that it can be fed directly into templating packages for printing usage messages.
*/
package constants

// Constants contains the system-wide constants
type Constants struct {
	DigProgramName string
	Version        string
	PackageName    string
	PackageURL     string
	RFC            string

	HTTPSDefaultPort string // HTTP related constants

	AcceptHeader      string // Place in every request
	ContentTypeHeader string
	UserAgentHeader   string

	Rfc8484AcceptValue string

	Rfc8484Path       string
	Rfc8484QueryParam string

	MinimumViableDNSMessage uint // MsgHdr + one Question with zero length name
	MaximumViableDNSMessage uint // RFC8484 defines an upper limit
	Rfc8467ClientPadModulo  uint

	DefaultTries         int // Per-server attempt count when Config.Tries is unset
	DefaultTimeoutMs     int // Per-attempt base timeout when Config.Timeout is unset
	DefaultConcurrency   int // resolveAny fan-out width when Config.Concurrency is unset
	DefaultTTLSeconds    int // Cache entry TTL when a response carries none
	DefaultMaxTTLSeconds int // Upper clamp for any cache entry TTL
	DefaultCacheCapacity int // Entry count for the bundled LRU cache backend
}

var readOnlyConstants *Constants

// createReadOnlyConstants creates a read-only copy of the Constants which is copied whenever a
// caller asks for the constants set. The main reason for returning a struct is so that callers can
// inspect and/or use packages that introspect - particularly text/template packages.
func createReadOnlyConstants() {
	readOnlyConstants = &Constants{
		DigProgramName: "tangerine-dig",
		Version:        "v0.1.0",
		PackageName:    "Tangerine DNS Over HTTPS",
		PackageURL:     "https://github.com/forwardemail/tangerine",
		RFC:            "RFC8484",

		HTTPSDefaultPort: "443",

		AcceptHeader:      "Accept",
		ContentTypeHeader: "Content-Type",
		UserAgentHeader:   "User-Agent",

		Rfc8484AcceptValue: "application/dns-message",

		Rfc8484Path:       "/dns-query",
		Rfc8484QueryParam: "dns",

		MinimumViableDNSMessage: 16, // A legit binary DNS Message *cannot* be shorter than this
		MaximumViableDNSMessage: 65535,
		Rfc8467ClientPadModulo:  128,

		DefaultTries:         3,
		DefaultTimeoutMs:     5000,
		DefaultConcurrency:   4,
		DefaultTTLSeconds:    5,
		DefaultMaxTTLSeconds: 604800, // 7 days
		DefaultCacheCapacity: 1024,
	}
}

func init() {
	createReadOnlyConstants()
}

// Get returns a copy of the Constant struct. Return by value so internal values cannot be
// inadvertently changed by callers.
func Get() Constants {
	return *readOnlyConstants
}
