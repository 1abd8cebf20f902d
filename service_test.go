package tangerine

import (
	"context"
	"testing"

	"github.com/miekg/dns"
)

func TestLookupServiceResolvesHostnameAndService(t *testing.T) {
	doer := newMockAnswer(t, dns.TypePTR, mustRR(t, "34.216.184.93.in-addr.arpa. 300 IN PTR example.com."))
	r := newTestResolver(t, doer)

	result, err := r.LookupService(context.Background(), "93.184.216.34", 443)
	if err != nil {
		t.Fatalf("LookupService: %v", err)
	}
	if result.Hostname != "example.com." {
		t.Errorf("Hostname = %q", result.Hostname)
	}
	if result.Service != "https" {
		t.Errorf("Service = %q, want https", result.Service)
	}
}

func TestLookupServiceRejectsBadPort(t *testing.T) {
	r := newTestResolver(t, &mockDoSimple{statusCode: 200})
	if _, err := r.LookupService(context.Background(), "93.184.216.34", 0); err == nil {
		t.Error("expected an error for port 0")
	}
	if _, err := r.LookupService(context.Background(), "93.184.216.34", 70000); err == nil {
		t.Error("expected an error for port > 65535")
	}
}
