package dnsutil

import (
	"fmt"

	"github.com/miekg/dns"
)

// FindPadding reports the length of an EDNS0_PADDING option carried in q's OPT RR, or -1 if q has no
// OPT RR or the OPT RR carries no padding option. A client sends padding to signal the server that it
// should pad its response in turn.
func FindPadding(q *dns.Msg) int {
	opt := FindOPT(q)
	if opt == nil {
		return -1
	}
	for _, subOpt := range opt.Option {
		if pad, ok := subOpt.(*dns.EDNS0_PADDING); ok {
			return len(pad.Padding)
		}
	}
	return -1
}

// PadAndPack packs msg after padding it to the nearest multiple of moduloSize octets, per RFC 8467 -
// which recommends queries pad to a multiple of 128 octets and responses to a multiple of 468. Any
// pre-existing padding option is stripped first: padding is a hop-by-hop signal, so whatever arrived
// with msg has already served its purpose.
//
// Packing happens inside this call (rather than leaving it to the caller) so nothing can mutate msg
// between the padding calculation and the bytes that go on the wire - dns.Msg.Len() and dns.Msg.Pack()
// don't always agree on a message's length, so the padded size is verified against the packed output
// before it's returned.
func PadAndPack(msg *dns.Msg, moduloSize uint) ([]byte, error) {
	if moduloSize < 1 || moduloSize > consts.MaximumViableDNSMessage {
		return nil, fmt.Errorf("dnsutil: PadAndPack: modulo size %d is not in range 1-%d", moduloSize, consts.MaximumViableDNSMessage)
	}

	opt := prepareOPTForPadding(msg)

	// A zero-length placeholder is added first so msg.Len() below already accounts for the
	// padding option's own header overhead.
	placeholder := &dns.EDNS0_PADDING{Padding: []byte{}}
	opt.Option = append(opt.Option, placeholder)

	need := moduloSize - (uint(msg.Len()) % moduloSize)
	if need > 0 {
		opt.Option[len(opt.Option)-1] = &dns.EDNS0_PADDING{Padding: make([]byte, need)}
	}

	packed, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("dnsutil: PadAndPack dns.Pack() failed: %w", err)
	}
	if uint(len(packed))%moduloSize != 0 {
		return nil, fmt.Errorf("dnsutil: PadAndPack created unexpected length of %d with mod %d", len(packed), moduloSize)
	}
	return packed, nil
}

// prepareOPTForPadding returns msg's OPT RR with any existing padding option removed, creating and
// attaching a fresh OPT RR first if msg doesn't already carry one.
func prepareOPTForPadding(msg *dns.Msg) *dns.OPT {
	if len(msg.Extra) > 0 {
		RemoveEDNS0FromOPT(msg, dns.EDNS0PADDING)
		if opt := FindOPT(msg); opt != nil {
			return opt
		}
	}
	opt := NewOPT()
	msg.Extra = append(msg.Extra, opt)
	return opt
}
