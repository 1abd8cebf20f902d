/*
Package query implements the resolution loop for one (name, rrtype, ecs) tuple: iterate servers,
inside each server try up to N attempts with exponential timeout doubling, classify errors, stop
early on authoritative negatives, and combine partial errors.

The per-attempt shape - build request, httpClient.Do, classify status/error, retry-or-not - mirrors
a DoH resolver seen elsewhere in this tree, generalized from a single best-server selection to a
full rotation.Set order with a nested per-server/per-attempt loop. With SmartRotate, every server
that produced errors but no answer is demoted to the tail of the rotation once server iteration
for the query has finished, whether or not a later server answered.
*/
package query

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/forwardemail/tangerine/internal/cancel"
	"github.com/forwardemail/tangerine/internal/constants"
	"github.com/forwardemail/tangerine/internal/dnserr"
	"github.com/forwardemail/tangerine/internal/dnsutil"
	"github.com/forwardemail/tangerine/internal/rotation"
	"github.com/forwardemail/tangerine/internal/transport"

	"github.com/miekg/dns"
)

const me = "query"

// Config holds the per-engine tunables.
type Config struct {
	Tries       int           // Attempts per server
	Timeout     time.Duration // Base per-attempt timeout before doubling
	Method      transport.Method
	Protocol    string // "https" normally; "http" for tests against a local server
	SmartRotate bool   // Demote a server that accumulated errors but produced no answer
	Padding     bool   // RFC8467 pad the query to constants.Rfc8467ClientPadModulo before sending
	Headers     map[string]string
	Trace       io.Writer // when set, a compact Q:/R: line is written per query/response pair
}

// Engine resolves one packed DNS query against a rotation.Set of servers.
type Engine struct {
	config Config
	doer   transport.Doer
	rot    *rotation.Set
}

// New constructs an Engine. doer is typically the result of transport.NewDefaultClient, or a mock
// in tests.
func New(config Config, doer transport.Doer, rot *rotation.Set) *Engine {
	return &Engine{config: config, doer: doer, rot: rot}
}

// Resolve runs the full server/attempt loop for one already-built *dns.Msg query and returns the
// decoded response. parent is an optional parent cancellation scope (nil means root).
func (e *Engine) Resolve(parent *cancel.Scope, q *dns.Msg) (*dns.Msg, error) {
	if parent == nil {
		parent = cancel.New(nil)
	}
	if parent.Done() {
		return nil, &dnserr.Error{Code: dnserr.Cancelled, Message: me + ": parent scope already cancelled"}
	}

	binary, err := e.pack(q)
	if err != nil {
		return nil, &dnserr.Error{Code: dnserr.BadName, Message: me + ": pack query: " + err.Error()}
	}
	if e.config.Trace != nil {
		e.trace("Q:" + dnsutil.CompactMsgString(q))
	}

	servers := e.rot.Order()
	var allErrs []error
	var failedServers []string
	demoteFailed := func() {
		if e.config.SmartRotate {
			for _, s := range failedServers {
				e.rot.Demote(s)
			}
		}
	}

	for _, server := range servers {
		if parent.Done() {
			return nil, &dnserr.Error{Code: dnserr.Cancelled, Message: me + ": cancelled during server iteration"}
		}

		buf, accumulated, gotAnswer := e.tryServer(parent, server, binary)
		if gotAnswer {
			demoteFailed()
			resp := &dns.Msg{}
			if err := resp.Unpack(buf); err != nil {
				return nil, &dnserr.Error{Code: dnserr.BadResp, Message: me + ": unpack response: " + err.Error(), Hostname: firstQName(q)}
			}
			if e.config.Trace != nil {
				e.trace("R:" + dnsutil.CompactMsgString(resp))
			}
			return resp, nil
		}

		if authoritative, aerr := firstAuthoritativeNotFound(accumulated); authoritative {
			return nil, aerr
		}

		if len(accumulated) > 0 {
			allErrs = append(allErrs, accumulated...)
			failedServers = append(failedServers, server)
		}
	}

	demoteFailed()

	if len(allErrs) > 0 {
		return nil, dnserr.Combine(dnserr.ServFail, "", firstQName(q), allErrs)
	}
	return nil, &dnserr.Error{Code: dnserr.Cancelled, Message: me + ": every request suspended without producing an answer", Hostname: firstQName(q)}
}

// trace writes line to the configured trace writer, if any. A nil Trace leaves this a no-op, so
// the common case pays no CompactMsgString formatting cost at all.
func (e *Engine) trace(line string) {
	if e.config.Trace == nil {
		return
	}
	fmt.Fprintln(e.config.Trace, line)
}

// pack serializes q, applying RFC8467 query padding when the engine is configured for it.
func (e *Engine) pack(q *dns.Msg) ([]byte, error) {
	if !e.config.Padding {
		return q.Pack()
	}
	return dnsutil.PadAndPack(q, constants.Get().Rfc8467ClientPadModulo)
}

// tryServer runs the per-attempt loop against one server. It returns the response buffer and true
// on success, or the accumulated per-attempt errors otherwise.
func (e *Engine) tryServer(parent *cancel.Scope, server string, binary []byte) (buf []byte, errs []error, ok bool) {
	tries := e.config.Tries
	if tries < 1 {
		tries = 1
	}

	for i := 0; i < tries; i++ {
		if parent.Done() {
			errs = append(errs, &dnserr.Error{Code: dnserr.Cancelled, Message: me + ": cancelled before attempt"})
			return nil, errs, false
		}

		deadline := e.config.Timeout << uint(i) // exponential, not cumulative across attempts
		attempt := cancel.WithTimeout(parent.Context(), deadline)

		body, status, err := transport.Send(attempt.Context(), e.doer, transport.Request{
			Protocol: e.config.Protocol,
			Server:   server,
			Method:   e.config.Method,
			Headers:  e.config.Headers,
			Packet:   binary,
		})
		attempt.Cancel()

		if err != nil {
			code := dnserr.ClassifyTransportError(err)
			derr := &dnserr.Error{Code: code, Message: me + ": " + err.Error(), Hostname: server}
			if code == dnserr.NotFound {
				return nil, []error{derr}, false // authoritative short-circuit, caller checks firstAuthoritativeNotFound
			}
			errs = append(errs, derr)
			if !dnserr.IsRetryable(code) {
				return nil, errs, false
			}
			continue
		}

		if status/100 == 2 {
			if len(body) == 0 {
				errs = append(errs, &dnserr.Error{Code: dnserr.BadResp, Message: me + ": empty response body", Hostname: server})
				continue
			}
			return body, nil, true
		}

		derr := &dnserr.Error{Code: dnserr.RcodeToCode(statusCodeName(status)), Message: fmt.Sprintf("%s: HTTP status %d from %s", me, status, server), Hostname: server}
		if dnserr.RetryableHTTPStatus(status) {
			errs = append(errs, derr)
			continue
		}
		errs = append(errs, derr)
		return nil, errs, false // non-retryable, break the attempt loop for this server
	}

	return nil, errs, false
}

// firstAuthoritativeNotFound reports whether errs contains the authoritative-negative
// short-circuit error produced by tryServer: an authoritative NOTFOUND terminates the whole
// query immediately rather than falling through to the next server.
func firstAuthoritativeNotFound(errs []error) (bool, error) {
	for _, e := range errs {
		var derr *dnserr.Error
		if errors.As(e, &derr) && derr.Code == dnserr.NotFound {
			return true, derr
		}
	}
	return false, nil
}

func firstQName(q *dns.Msg) string {
	if len(q.Question) == 0 {
		return ""
	}
	return q.Question[0].Name
}

// statusCodeName maps an HTTP status to the rcode-ish name dnserr.RcodeToCode expects, for
// statuses that have a natural DNS rcode analogue (500-series -> SERVFAIL); anything else falls
// through to dnserr's default BADRESP via RcodeToCode's unknown-name branch.
func statusCodeName(status int) string {
	switch status {
	case 500, 502, 503, 504:
		return "SERVFAIL"
	case 400:
		return "FORMERR"
	case 501:
		return "NOTIMP"
	case 403:
		return "REFUSED"
	default:
		return ""
	}
}
