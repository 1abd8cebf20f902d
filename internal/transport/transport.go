/*
Package transport sends one RFC 8484 DoH request to one server and returns the raw response bytes.
The GET/POST request construction (base64url query string vs raw POST body, the
Accept/Content-Type/User-Agent header block) and the HTTPClientDo mock seam, kept here as Doer,
follow the shape of a DoH resolver seen elsewhere in this tree.

The HTTP client implementation itself is treated as an external collaborator the caller may
supply; this package only adapts one to the shape the Query Engine needs and provides one
reasonable default.
*/
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forwardemail/tangerine/internal/constants"
	"github.com/forwardemail/tangerine/internal/tlsutil"

	"golang.org/x/net/http2"
)

// Doer is the only http.Client method this package depends on. A *http.Client satisfies it with no
// adapter, and tests can supply a mock.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Method selects how the DNS query bytes are carried.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

var consts = constants.Get()

// TLSOptions configures the TLS side of the default client's transport. The zero value verifies
// the upstream DoH server against the system root pool, presents no client certificate, and is
// what every caller outside of tests wants.
type TLSOptions struct {
	InsecureSkipVerify bool     // Skip verification entirely; for tests against a self-signed local server
	UseSystemCAs       bool     // Seed the root pool with the system's trust store
	CACertFiles        []string // Additional PEM root CA files to trust, beyond UseSystemCAs
	ClientCertFile     string   // Client certificate to present, for mTLS upstreams
	ClientKeyFile      string   // Must be set together with ClientCertFile
}

// NewDefaultClient builds the default Doer: an *http.Client configured for h2, with its TLS trust
// store built the same way a DoH resolver's own client-side TLS helper builds one elsewhere in this
// tree - system/extra CA pool plus an optional client certificate for mTLS upstreams.
func NewDefaultClient(opts TLSOptions) (*http.Client, error) {
	var tlsConfig *tls.Config
	if opts.InsecureSkipVerify {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	} else {
		// Absent any explicit CA configuration, still verify against the system trust store: the
		// zero value of TLSOptions must not silently disable verification.
		useSystemCAs := opts.UseSystemCAs || len(opts.CACertFiles) == 0
		cfg, err := tlsutil.NewClientTLSConfig(useSystemCAs, opts.CACertFiles, opts.ClientCertFile, opts.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("transport: building TLS config: %w", err)
		}
		tlsConfig = cfg
	}

	tr := &http.Transport{TLSClientConfig: tlsConfig}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("transport: configuring h2: %w", err)
	}
	return &http.Client{Transport: tr, Timeout: 0}, nil // Per-request deadlines come from context
}

// Request describes one DoH exchange.
type Request struct {
	Protocol string // "http" or "https"
	Server   string // host[:port], no scheme
	Method   Method
	Headers  map[string]string
	Packet   []byte // the packed, possibly padded, DNS query
}

// url builds the full request URL, appending the base64url-encoded query string for GET.
func (r Request) url() string {
	u := r.Protocol + "://" + r.Server + consts.Rfc8484Path
	if r.Method == MethodGet {
		u += "?" + consts.Rfc8484QueryParam + "=" + base64.URLEncoding.EncodeToString(r.Packet)
	}
	return u
}

// Send issues one HTTP request for the given DoH Request and returns the raw response bytes and
// status code. The caller (internal/query) is responsible for classifying non-2xx statuses and
// transport errors via internal/dnserr.
func Send(ctx context.Context, doer Doer, req Request) (body []byte, statusCode int, err error) {
	var rd io.Reader
	if req.Method == MethodPost {
		rd = bytes.NewReader(req.Packet)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.url(), rd)
	if err != nil {
		return nil, 0, fmt.Errorf("transport: building request: %w", err)
	}

	httpReq.Header.Set(consts.AcceptHeader, consts.Rfc8484AcceptValue)
	httpReq.Header.Set(consts.ContentTypeHeader, consts.Rfc8484AcceptValue)
	httpReq.Header.Set(consts.UserAgentHeader, consts.PackageName+"/"+consts.Version+" ("+consts.PackageURL+")")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := doer.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode/100 != 2 {
		// Drain but don't attempt to decode; the engine only needs the status to classify.
		return nil, resp.StatusCode, nil
	}

	b, err := readAllBytes(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("transport: reading response body: %w", err)
	}
	return b, resp.StatusCode, nil
}

// drainAndClose discards any remaining bytes before closing. A non-success response's body is
// drained rather than left dangling, so the connection's resources are released promptly.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}

// arrayBufferer models a body that yields its full contents via a single method call rather than
// the streaming io.Reader interface - one of three body shapes the transport adapter supports.
type arrayBufferer interface {
	ArrayBuffer() ([]byte, error)
}

// readAllBytes copes with contiguous bytes, a lazy byte-producing method, or a plain io.Reader
// stream, behind one call. net/http.Response.Body is always an io.ReadCloser in Go, so in practice
// only the stream branch is exercised by the default client; the arrayBufferer branch exists for
// alternative Doer implementations (e.g. a WASM/JS interop shim) that hand back something other
// than an io.Reader.
func readAllBytes(body io.Reader) ([]byte, error) {
	if ab, ok := body.(arrayBufferer); ok {
		return ab.ArrayBuffer()
	}
	return io.ReadAll(body)
}

// timeoutForAttempt returns the per-attempt deadline for attempt i (0-based), doubling each time
// and never cumulative across attempts.
func timeoutForAttempt(base time.Duration, attempt int) time.Duration {
	return base << attempt
}
