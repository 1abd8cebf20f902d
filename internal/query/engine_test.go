package query

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/forwardemail/tangerine/internal/cancel"
	"github.com/forwardemail/tangerine/internal/dnserr"
	"github.com/forwardemail/tangerine/internal/rotation"
	"github.com/forwardemail/tangerine/internal/transport"

	"github.com/miekg/dns"
)

type bodyCloser struct {
	io.Reader
}

func (*bodyCloser) Close() error { return nil }

func newBodyCloser(b []byte) io.ReadCloser { return &bodyCloser{Reader: strings.NewReader(string(b))} }

func newQuery(name string, qtype uint16) *dns.Msg {
	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(name), qtype)
	q.Id = dns.Id()
	return q
}

func TestResolveSucceedsOnFirstServer(t *testing.T) {
	rot, err := rotation.New([]string{"a.example.invalid"})
	if err != nil {
		t.Fatalf("rotation.New: %v", err)
	}
	doer := &respondingDoer{}
	e := New(Config{Tries: 1, Timeout: time.Second, Method: transport.MethodPost, Protocol: "https"}, doer, rot)

	resp, err := e.Resolve(cancel.New(nil), newQuery("example.com", dns.TypeA))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resp.Answer) != 1 {
		t.Errorf("Answer = %+v", resp.Answer)
	}
}

func TestResolveFallsThroughToSecondServerOnFailure(t *testing.T) {
	rot, err := rotation.New([]string{"bad.example.invalid", "good.example.invalid"})
	if err != nil {
		t.Fatalf("rotation.New: %v", err)
	}
	doer := &perServerDoer{fail: map[string]bool{"bad.example.invalid": true}}
	e := New(Config{Tries: 1, Timeout: time.Second, Method: transport.MethodPost, Protocol: "https"}, doer, rot)

	resp, err := e.Resolve(cancel.New(nil), newQuery("example.com", dns.TypeA))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resp.Answer) != 1 {
		t.Errorf("Answer = %+v", resp.Answer)
	}
}

func TestResolvePadsQueryWhenConfigured(t *testing.T) {
	rot, err := rotation.New([]string{"a.example.invalid"})
	if err != nil {
		t.Fatalf("rotation.New: %v", err)
	}
	doer := &respondingDoer{}
	e := New(Config{Tries: 1, Timeout: time.Second, Method: transport.MethodPost, Protocol: "https", Padding: true}, doer, rot)

	binary, err := e.pack(newQuery("example.com", dns.TypeA))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(binary)%128 != 0 {
		t.Errorf("padded length %d is not a multiple of 128", len(binary))
	}
}

func TestResolveWritesCompactTraceWhenConfigured(t *testing.T) {
	rot, err := rotation.New([]string{"a.example.invalid"})
	if err != nil {
		t.Fatalf("rotation.New: %v", err)
	}
	doer := &respondingDoer{}
	var trace bytes.Buffer
	e := New(Config{Tries: 1, Timeout: time.Second, Method: transport.MethodPost, Protocol: "https", Trace: &trace}, doer, rot)

	if _, err := e.Resolve(cancel.New(nil), newQuery("example.com", dns.TypeA)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a Q: and R: line, got %d: %q", len(lines), trace.String())
	}
	if !strings.HasPrefix(lines[0], "Q:") {
		t.Errorf("first trace line = %q, want Q: prefix", lines[0])
	}
	if !strings.HasPrefix(lines[1], "R:") {
		t.Errorf("second trace line = %q, want R: prefix", lines[1])
	}
	if !strings.Contains(lines[1], "example.com") {
		t.Errorf("response trace line missing qname: %q", lines[1])
	}
}

func TestResolveCombinesErrorsWhenEveryServerFails(t *testing.T) {
	rot, err := rotation.New([]string{"a.example.invalid", "b.example.invalid"})
	if err != nil {
		t.Fatalf("rotation.New: %v", err)
	}
	doer := &perServerDoer{fail: map[string]bool{"a.example.invalid": true, "b.example.invalid": true}}
	e := New(Config{Tries: 1, Timeout: time.Second, Method: transport.MethodPost, Protocol: "https"}, doer, rot)

	_, err = e.Resolve(cancel.New(nil), newQuery("example.com", dns.TypeA))
	if err == nil {
		t.Fatal("expected a combined error when every server fails")
	}
	var derr *dnserr.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected a *dnserr.Error, got %T", err)
	}
}

// respondingDoer always answers successfully for an A query, regardless of server.
type respondingDoer struct{}

func (*respondingDoer) Do(req *http.Request) (*http.Response, error) {
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	resp := new(dns.Msg)
	resp.SetReply(q)
	rr, _ := dns.NewRR("example.com. 300 IN A 93.184.216.34")
	resp.Answer = []dns.RR{rr}
	b, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	return &http.Response{StatusCode: 200, Header: make(http.Header), Body: newBodyCloser(b)}, nil
}

// perServerDoer fails (500, non-retryable classification aside) for any server named in fail and
// otherwise answers successfully, so tests can exercise rotation fallthrough deterministically.
type perServerDoer struct {
	fail map[string]bool
}

func (p *perServerDoer) Do(req *http.Request) (*http.Response, error) {
	if p.fail[req.URL.Host] {
		return &http.Response{StatusCode: 500, Header: make(http.Header), Body: http.NoBody}, nil
	}
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	resp := new(dns.Msg)
	resp.SetReply(q)
	rr, _ := dns.NewRR("example.com. 300 IN A 93.184.216.34")
	resp.Answer = []dns.RR{rr}
	b, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	return &http.Response{StatusCode: 200, Header: make(http.Header), Body: newBodyCloser(b)}, nil
}
