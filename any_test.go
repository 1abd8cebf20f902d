package tangerine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/miekg/dns"
)

// multiTypeDoer answers each query according to its question's rrtype, so a single mock can serve
// a full ResolveAny fan-out.
type multiTypeDoer struct {
	answers map[uint16][]dns.RR
}

func (m *multiTypeDoer) Do(req *http.Request) (*http.Response, error) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	q := new(dns.Msg)
	if err := q.Unpack(raw); err != nil {
		return nil, err
	}

	resp := new(dns.Msg)
	resp.SetReply(q)
	if len(q.Question) > 0 {
		resp.Answer = m.answers[q.Question[0].Qtype]
	}
	b, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: 200,
		Body:       &mockReaderCloser{Reader: bytes.NewReader(b)},
		Header:     make(http.Header),
	}, nil
}

func TestResolveAnyCollectsEveryType(t *testing.T) {
	doer := &multiTypeDoer{answers: map[uint16][]dns.RR{
		dns.TypeA:   {mustRR(t, "example.com. 300 IN A 93.184.216.34")},
		dns.TypeMX:  {mustRR(t, "example.com. 300 IN MX 10 mail.example.com.")},
		dns.TypeTXT: {mustRR(t, `example.com. 300 IN TXT "hello"`)},
	}}

	r, err := New(Config{
		Servers: []string{"dns.example.invalid"},
		NoHosts: true,
	}, WithDoer(doer))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := r.ResolveAny(context.Background(), "example.com", Options{})
	if err != nil {
		t.Fatalf("ResolveAny: %v", err)
	}

	var sawA, sawMX, sawTXT bool
	for _, a := range out {
		switch a.Type {
		case "A":
			sawA = a.Address == "93.184.216.34"
		case "MX":
			sawMX = a.Exchange == "mail.example.com." && a.Priority == 10
		case "TXT":
			sawTXT = len(a.Entries) == 1 && a.Entries[0] == "hello"
		}
	}
	if !sawA || !sawMX || !sawTXT {
		t.Errorf("missing expected entries in %+v", out)
	}
}
