package dnserr

import (
	"errors"
	"testing"
)

func TestRcodeToCode(t *testing.T) {
	cases := map[string]Code{
		"FORMERR":  FormErr,
		"SERVFAIL": ServFail,
		"NXDOMAIN": NotFound,
		"NOTIMP":   NotImp,
		"REFUSED":  Refused,
		"NOTAUTH":  BadResp,
	}
	for rcode, want := range cases {
		if got := RcodeToCode(rcode); got != want {
			t.Errorf("RcodeToCode(%s) = %s, want %s", rcode, got, want)
		}
	}
}

func TestRetryableHTTPStatus(t *testing.T) {
	for _, s := range []int{408, 429, 500, 503, 524} {
		if !RetryableHTTPStatus(s) {
			t.Errorf("status %d should be retryable", s)
		}
	}
	for _, s := range []int{200, 400, 404, 501} {
		if RetryableHTTPStatus(s) {
			t.Errorf("status %d should not be retryable", s)
		}
	}
}

func TestFromSystemCode(t *testing.T) {
	if FromSystemCode("ECONNREFUSED") != ConnRefused {
		t.Error("ECONNREFUSED should classify as CONNREFUSED")
	}
	if FromSystemCode("ETIMEDOUT") != Timeout {
		t.Error("ETIMEDOUT should classify as TIMEOUT")
	}
	if FromSystemCode("ERR_ABORTED") != Cancelled {
		t.Error("ERR_ABORTED should classify as CANCELLED")
	}
	if FromSystemCode("EWEIRD") != BadResp {
		t.Error("unknown system code should classify as BADRESP")
	}
}

func TestCombine(t *testing.T) {
	e1 := New(Timeout, "queryA", "example.com", "first")
	e2 := New(Timeout, "queryA", "example.com", "second")
	combined := Combine(BadResp, "queryA", "example.com", []error{e1, e2})
	if combined.Code != Timeout {
		t.Errorf("expected shared code TIMEOUT, got %s", combined.Code)
	}
	if combined.Hostname != "example.com" {
		t.Error("hostname not propagated")
	}

	e3 := New(ConnRefused, "queryA", "example.com", "third")
	mixed := Combine(BadResp, "queryA", "example.com", []error{e1, e3})
	if mixed.Code != BadResp {
		t.Errorf("disagreeing codes should fall back to caller default, got %s", mixed.Code)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := &Error{Message: "wrap", Code: BadResp, Errors: []error{inner}}
	if !errors.Is(e, inner) {
		t.Error("expected errors.Is to see through to the wrapped error")
	}
}
