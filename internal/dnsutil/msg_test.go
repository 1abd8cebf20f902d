package dnsutil

import (
	"net"
	"testing"

	"github.com/miekg/dns"
)

// Reduce RSI!
func checkFatal(t *testing.T, err error, what string) {
	if err != nil {
		t.Fatal("Unexpected failure generating test data ", what, err)
	}
}

// findSubnetOpt is a test-local replacement for walking an OPT RR's sub-options by hand; unlike
// production code, the tests still want to assert on the EDNS0_SUBNET sub-option directly.
func findSubnetOpt(m *dns.Msg) (*dns.OPT, *dns.EDNS0_SUBNET) {
	opt := FindOPT(m)
	if opt == nil {
		return nil, nil
	}
	for _, subOpt := range opt.Option {
		if ecs, ok := subOpt.(*dns.EDNS0_SUBNET); ok {
			return opt, ecs
		}
	}
	return opt, nil
}

func TestFindOPT(t *testing.T) {
	mno := &dns.Msg{}
	if opt := FindOPT(mno); opt != nil {
		t.Error("FindOPT found an OPT RR in an empty message")
	}

	mno.Answer = append(mno.Answer, &dns.OPT{}) // Populate all-but Extra
	mno.Ns = append(mno.Ns, &dns.OPT{})
	if opt := FindOPT(mno); opt != nil {
		t.Error("FindOPT found an OPT RR in an empty Extra list")
	}

	myes := &dns.Msg{}
	newOpt := &dns.OPT{}
	myes.Extra = append(myes.Extra, newOpt)
	opt := FindOPT(myes)
	if opt == nil {
		t.Error("FindOPT did not an OPT RR")
	}

	if newOpt != opt {
		t.Error("FindOPT returned the wrong OPT RR")
	}
}

//////////////////////////////////////////////////////////////////////

func TestRemoveEDNS0Single(t *testing.T) {
	m := &dns.Msg{}
	if RemoveEDNS0FromOPT(m, dns.EDNS0SUBNET) {
		t.Error("RemoveEDNS0FromOPT claimed success with an empty message")
	}

	newOpt := &dns.OPT{}
	newSubOpt := &dns.EDNS0_SUBNET{}
	newOpt.Option = append(newOpt.Option, newSubOpt)
	m.Extra = append(m.Extra, newOpt)

	opt, subOpt := findSubnetOpt(m) // Make sure the sub-option is there the first time round
	if opt == nil {
		t.Error("findSubnetOpt did not find the OPT RR prior to RemoveEDNS0FromOPT(dns.EDNS0SUBNET)")
	}
	if subOpt == nil {
		t.Error("findSubnetOpt did not find the EDNS0_SUBNET prior to RemoveEDNS0FromOPT(dns.EDNS0SUBNET)")
	}

	if !RemoveEDNS0FromOPT(m, dns.EDNS0SUBNET) {
		t.Error("RemoveEDNS0FromOPT() failed to remove existing ECS")
	}

	opt, subOpt = findSubnetOpt(m) // This should now fail
	if opt != nil || subOpt != nil {
		t.Error("findSubnetOpt had unexpected success after RemoveEDNS0FromOPT(dns.EDNS0SUBNET)")
	}
}

// Test RemoveEDNS0FromOPT when multiple OPTs are present. This is potentially a malformed message
// but RemoveEDNS0FromOPT is purposely as aggressive as it can be.
func TestRemoveECSMultiple(t *testing.T) {
	m := &dns.Msg{}
	newOpt := &dns.OPT{}
	newSubOpt := &dns.EDNS0_SUBNET{}
	newOpt.Option = append(newOpt.Option, newSubOpt)
	newOther := &dns.NS{}
	m.Extra = append(m.Extra, newOther, newOpt, newOpt, newOpt, newOther)

	opt, subOpt := findSubnetOpt(m) // Make sure the sub-option is there the first time round
	if opt == nil {
		t.Error("findSubnetOpt did not find the OPT RR prior to RemoveEDNS0FromOPT()")
	}
	if subOpt == nil {
		t.Error("findSubnetOpt did not find the EDNS0_SUBNET prior to RemoveEDNS0FromOPT()")
	}

	if !RemoveEDNS0FromOPT(m, dns.EDNS0SUBNET) {
		t.Error("RemoveEDNS0FromOPT failed to remove existing ECS")
	}

	// RemoveEDNS0FromOPT removes empty OPT RRs which they should be in this case
	opt = FindOPT(m)
	if opt != nil {
		t.Error("FindOPT had unexpected success when an empty OPT should have been removed")
	}

	opt, subOpt = findSubnetOpt(m) // This should now fail
	if opt != nil || subOpt != nil {
		t.Error("findSubnetOpt had unexpected success after RemoveEDNS0FromOPT")
	}

	if len(m.Extra) != 2 {
		t.Error("Should have two remaining NS RRs in Extra. Not", len(m.Extra))
	}
}

// If the OPT has other subopts in it then RemoveEDNS0FromOPT should leave those intact
func TestRemoveNonEmptyOPT(t *testing.T) {
	m := &dns.Msg{}
	newOpt := &dns.OPT{}
	newOpt.Option = append(newOpt.Option,
		&dns.EDNS0_COOKIE{},
		&dns.EDNS0_PADDING{},
		&dns.EDNS0_SUBNET{},
		&dns.EDNS0_PADDING{})
	m.Extra = append(m.Extra, newOpt)

	opt, subOpt := findSubnetOpt(m) // Make sure the sub-option is found the first time round
	if opt == nil || subOpt == nil {
		t.Error("findSubnetOpt did not find embedded EDNS0_SUBNET")
	}

	if !RemoveEDNS0FromOPT(m, dns.EDNS0SUBNET) {
		t.Error("RemoveEDNS0FromOPT failed to remove embedded EDNS0_SUBNET")
	}
	opt, subOpt = findSubnetOpt(m) // Make sure it's gone
	if subOpt != nil {
		t.Error("findSubnetOpt did not fail after removal of embedded EDNS0_SUBNET")
	}

	opt = FindOPT(m) // But FindOPT should succeed!
	if opt == nil {
		t.Fatal("FindOPT failed but it should have found the multi-subopt OPT")
	}
	if len(opt.Option) != 3 {
		t.Error("Wrong number of remaining subopts. Expected 3, got", len(opt.Option))
	}

	// Now remove other types to make sure RemoveEDNS0FromOPT isn't type sensitive

	if !RemoveEDNS0FromOPT(m, dns.EDNS0COOKIE) {
		t.Error("RemoveEDNS0FromOPT failed to remove embedded EDNS0_COOKIE")
	}
	opt = FindOPT(m) // Re-get the opt as it may bave been re-generated
	if opt == nil {
		t.Fatal("FindOPT failed but it should have found the multi-subopt OPT")
	}
	if len(opt.Option) != 2 {
		t.Error("Wrong number of remaining subopts. Expected 2, got", len(opt.Option), opt)
	}

	if !RemoveEDNS0FromOPT(m, dns.EDNS0PADDING) {
		t.Error("RemoveEDNS0FromOPT failed to remove all embedded EDNS0_PADDING")
	}
	opt = FindOPT(m) // Re-get the opt as it may bave been re-generated
	if opt != nil {
		t.Error("OPT should have been removed when last subopt was removed")
	}
}

func TestCreateECS(t *testing.T) {
	m := &dns.Msg{}
	CreateECS(m, 1, 19, net.IP{})

	opt, subOpt := findSubnetOpt(m)
	if opt == nil || subOpt == nil {
		t.Error("findSubnetOpt did not find the CreateECS ECS")
	}

	if subOpt.Family != 1 {
		t.Error("CreateECS created wrong family. Want 1, got", subOpt.Family)
	}

	if subOpt.SourceNetmask != 19 {
		t.Error("CreateECS created wrong SourceNetmask. Want 19, got", subOpt.SourceNetmask)
	}

	// Make sure no other damage to the message

	if len(m.Extra) != 1 {
		t.Error("Should be exactly one OPT, not", len(m.Extra))
	}

	// Create with a prepopulated OPT

	m2 := &dns.Msg{}
	m2.Extra = append(m2.Extra, &dns.OPT{})

	CreateECS(m2, 2, 71, net.IP{})

	opt, subOpt = findSubnetOpt(m2)
	if opt == nil || subOpt == nil {
		t.Error("findSubnetOpt did not find the CreateECS ECS with existing OPT")
	}

	if subOpt.Family != 2 {
		t.Error("CreateECS created wrong family. Want 2, got", subOpt.Family)
	}

	if subOpt.SourceNetmask != 71 {
		t.Error("CreateECS created wrong SourceNetmask. Want 71, got", subOpt.SourceNetmask)
	}
}

func TestReduceTTL(t *testing.T) {
	tree := map[string]any{
		"address": "1.2.3.4",
		"ttl":     float64(3), // Reduces by 10 to minimum
		"nested": map[string]any{
			"ttl": float64(300), // Normal reduction without limits
		},
		"list": []any{
			map[string]any{"ttl": float64(10)}, // Reduces by 10 to minimum
			map[string]any{"ttl": float64(2)},  // Unchanged, already at minimum
			"opaque", // Non-map/slice leaves must be skipped without panicking
		},
	}

	rc := ReduceTTL(tree, 10, 2000) // Minimum so large nothing should change
	if rc > 0 {
		t.Error("ReduceTTL reduced below minimum of 2000", rc)
	}

	rc = ReduceTTL(tree, 10, 2) // This should change 3 of the 4 ttl fields
	if rc != 3 {
		t.Error("ReduceTTL should have reduced 3 fields, not", rc)
	}

	if tree["ttl"] != float64(2) {
		t.Error("top-level ttl expected 2, got", tree["ttl"])
	}
	if tree["nested"].(map[string]any)["ttl"] != float64(290) {
		t.Error("nested ttl expected 290, got", tree["nested"].(map[string]any)["ttl"])
	}
	list := tree["list"].([]any)
	if list[0].(map[string]any)["ttl"] != float64(2) {
		t.Error("list[0] ttl expected 2, got", list[0].(map[string]any)["ttl"])
	}
	if list[1].(map[string]any)["ttl"] != float64(2) {
		t.Error("list[1] ttl expected unchanged 2, got", list[1].(map[string]any)["ttl"])
	}
}
