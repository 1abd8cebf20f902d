package dnserr

import (
	"context"
	"errors"
	"net"
)

// ClassifyTransportError maps an error returned from an in-flight HTTP round trip onto a Code.
// Generalizes the "count this cause" failure-index lookups seen elsewhere in this tree into
// "name this cause".
func ClassifyTransportError(err error) Code {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return Cancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case opErr.Op == "dial" || opErr.Op == "read" || opErr.Op == "write":
			return ConnRefused
		}
	}

	return BadResp
}

// IsRetryable reports whether a classified transport/HTTP failure should trigger another attempt
// against the same server rather than abandoning it.
func IsRetryable(code Code) bool {
	return code == Timeout || code == ConnRefused
}
