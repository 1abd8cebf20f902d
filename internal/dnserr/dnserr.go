/*
Package dnserr defines the error taxonomy shared by internal/transport, internal/query and the
root tangerine package. It plays the same role here as the fixed, per-cause error-index arrays
seen elsewhere in this tree: every distinguishable failure cause gets a name, and every cause
collapses into one small, stable public vocabulary. Causes are not counted.

Unlike those index arrays - which exist purely to drive a human-readable report string - a
dnserr.Error is the value handed back to callers, so each cause carries enough structure
(code, syscall, hostname) to be inspected programmatically with errors.As.
*/
package dnserr

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the small, stable vocabulary of errors tangerine produces. Transport and system level
// failures are folded into this set; see FromNetError and FromHTTPStatus.
type Code string

const (
	FormErr     Code = "FORMERR"
	ServFail    Code = "SERVFAIL"
	NotFound    Code = "NOTFOUND" // NXDOMAIN
	NotImp      Code = "NOTIMP"
	Refused     Code = "REFUSED"
	NoData      Code = "NODATA"
	BadResp     Code = "BADRESP"
	BadName     Code = "BADNAME"
	BadFamily   Code = "BADFAMILY"
	BadFlags    Code = "BADFLAGS"
	BadHints    Code = "BADHINTS"
	Timeout     Code = "TIMEOUT"
	ConnRefused Code = "CONNREFUSED"
	Cancelled   Code = "CANCELLED"
	EInval      Code = "EINVAL"

	// Node-style ERR_* codes used for config/argument validation.
	ErrInvalidArgType  Code = "ERR_INVALID_ARG_TYPE"
	ErrInvalidArgValue Code = "ERR_INVALID_ARG_VALUE"
	ErrMissingArgs     Code = "ERR_MISSING_ARGS"
	ErrSocketBadPort   Code = "ERR_SOCKET_BAD_PORT"
)

// Error is the structured error every public tangerine operation returns: message, code, syscall,
// hostname, errno, and any constituent errors.
type Error struct {
	Message  string
	Code     Code
	Syscall  string // e.g. "queryA", "getaddrinfo", "getHostByAddr"
	Hostname string
	Errno    string  // optional, platform errno-like label; empty if not applicable
	Errors   []error // constituent errors when this is a combined failure
}

func (e *Error) Error() string {
	msg := e.Message
	if len(msg) == 0 {
		msg = string(e.Code)
	}
	if len(e.Syscall) > 0 {
		return fmt.Sprintf("%s %s %s: %s", e.Syscall, e.Code, e.Hostname, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap exposes the first constituent error so errors.Is/As can still see through a combined
// error to, say, context.DeadlineExceeded.
func (e *Error) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// New constructs a single-cause Error.
func New(code Code, syscall, hostname, message string) *Error {
	return &Error{Message: message, Code: code, Syscall: syscall, Hostname: hostname}
}

// WithSyscall returns a shallow copy of e with Syscall and Hostname rewritten - used by lookup(),
// reverse() and lookupService() to relabel a query-level error into their own syscall vocabulary.
func (e *Error) WithSyscall(syscall, hostname string) *Error {
	cp := *e
	cp.Syscall = syscall
	cp.Hostname = hostname
	return &cp
}

// Combine merges one or more per-server errors accumulated by the Query Engine into a single
// Error: messages deduplicated and joined with "; ", code preserved only if identical across
// every constituent.
func Combine(code Code, syscall, hostname string, errs []error) *Error {
	if len(errs) == 0 {
		return New(code, syscall, hostname, "no servers available")
	}

	seen := make(map[string]bool, len(errs))
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		m := e.Error()
		if !seen[m] {
			seen[m] = true
			msgs = append(msgs, m)
		}
	}

	var commonCode Code
	for _, e := range errs {
		var de *Error
		if errors.As(e, &de) && de.Code != "" {
			if commonCode == "" {
				commonCode = de.Code
			} else if de.Code != commonCode {
				commonCode = code // codes disagree; fall back to the caller-supplied default
				break
			}
		}
	}
	if commonCode == "" {
		commonCode = code
	}

	return &Error{
		Message:  strings.Join(msgs, "; "),
		Code:     commonCode,
		Syscall:  syscall,
		Hostname: hostname,
		Errors:   errs,
	}
}

// RcodeToCode maps a DNS rcode name (as produced by github.com/miekg/dns's RcodeToString) onto the
// public error code.
func RcodeToCode(rcodeName string) Code {
	switch rcodeName {
	case "FORMERR":
		return FormErr
	case "SERVFAIL":
		return ServFail
	case "NXDOMAIN":
		return NotFound
	case "NOTIMP":
		return NotImp
	case "REFUSED":
		return Refused
	default:
		return BadResp
	}
}

// retryableHTTPStatus is the fixed set of HTTP status codes the Query Engine treats as
// retryable-on-next-attempt.
var retryableHTTPStatus = map[int]bool{
	408: true, 413: true, 429: true,
	500: true, 502: true, 503: true, 504: true,
	521: true, 522: true, 524: true,
}

// RetryableHTTPStatus reports whether an HTTP status code should trigger another attempt rather
// than abandoning the current server.
func RetryableHTTPStatus(status int) bool {
	return retryableHTTPStatus[status]
}

// networkCodes collapse to CONNREFUSED; timeoutCodes collapse to TIMEOUT; abortCodes collapse to
// CANCELLED. Anything else unrecognised collapses to BADRESP.
var (
	networkCodes = map[string]bool{
		"ENETDOWN": true, "ENETRESET": true, "ECONNRESET": true,
		"EADDRINUSE": true, "ECONNREFUSED": true, "ENETUNREACH": true,
	}
	timeoutCodes = map[string]bool{
		"ETIMEOUT": true, "ETIMEDOUT": true, "EPIPE": true, "EAI_AGAIN": true,
	}
	abortCodes = map[string]bool{
		"ABORT_ERR": true, "ECONNABORTED": true, "ERR_CANCELED": true,
		"ECANCELLED": true, "ERR_ABORTED": true, "UND_ERR_ABORTED": true,
	}
)

// FromSystemCode maps one of the platform-ish errno labels onto a Code.
func FromSystemCode(sysCode string) Code {
	switch {
	case networkCodes[sysCode]:
		return ConnRefused
	case timeoutCodes[sysCode]:
		return Timeout
	case abortCodes[sysCode]:
		return Cancelled
	default:
		return BadResp
	}
}
