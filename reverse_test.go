package tangerine

import (
	"context"
	"testing"

	"github.com/miekg/dns"
)

func TestReverseResolvesPTR(t *testing.T) {
	doer := newMockAnswer(t, dns.TypePTR, mustRR(t, "34.216.184.93.in-addr.arpa. 300 IN PTR example.com."))
	r := newTestResolver(t, doer)

	names, err := r.Reverse(context.Background(), "93.184.216.34")
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if len(names) != 1 || names[0] != "example.com." {
		t.Errorf("names = %+v", names)
	}
}

func TestReverseRejectsInvalidIP(t *testing.T) {
	r := newTestResolver(t, &mockDoSimple{statusCode: 200})
	if _, err := r.Reverse(context.Background(), "not-an-ip"); err == nil {
		t.Error("expected an error for an invalid IP")
	}
}
