/*
Package dnsutil provides helper methods to manipulate the fiddly EDNS0 Client Subnet bits, TTL
decay and RFC8467 padding. The caller is assumed to have checked that the dns.Msg is a legitimate
IN/Query prior to calling any of the dns.Msg-shaped functions.
*/
package dnsutil

import (
	"net"
	"strings"

	"github.com/forwardemail/tangerine/internal/constants"

	"github.com/miekg/dns"
)

var (
	consts = constants.Get()
)

// FindOPT searches dns.Msg.Extra for the first occurrence of an OPT RR. There should only be one.
//
// Return *dns.OPT if found otherwise nil
func FindOPT(q *dns.Msg) *dns.OPT {
	for _, rr := range q.Extra { // Search Extra for OPT RRs
		if opt, ok := rr.(*dns.OPT); ok {
			return opt
		}
	}

	return nil
}

// RemoveEDNS0FromOPT aggressively removes all occurrences of the specified EDNS0 sub-option in the
// Extra RR list of a dns.Msg. It makes the worst-case assumption that there may be multiple options
// and sub-options.
//
// True is returned if at least one sub-option was removed.
func RemoveEDNS0FromOPT(msg *dns.Msg, edns0Code uint16) (removed bool) {
	outRRs := make([]dns.RR, 0) // Construct an array of surviving RRs
	for _, rr := range msg.Extra {
		inOpt, ok := rr.(*dns.OPT)
		if !ok { // Non OPT RRs get copied straight across
			outRRs = append(outRRs, rr)
			continue
		}

		outOpt := &dns.OPT{Hdr: inOpt.Hdr} // Create a new OPT RR to contain the option survivors
		for _, opt := range inOpt.Option { // Search within the OPT RR for the ECS option
			if opt.Option() == edns0Code {
				removed = true
				continue
			}
			outOpt.Option = append(outOpt.Option, opt) // Non-ECS options survive
		}
		if len(outOpt.Option) > 0 { // Only append new OPT RR if it's not empty
			outRRs = append(outRRs, outOpt)
		}
	}

	if removed {
		msg.Extra = outRRs // Return survivors to the message - if any
	}

	return
}

// CreateECS arbitrarily creates an EDNS0_SUBNET sub-option which is appended to the OPT in the
// Extra section of the dns.Msg. If no OPT exists, one is created. This function does not check for
// any pre-existing EDNS0_SUBNET sub-option.
//
// Return the created ecs option.
func CreateECS(msg *dns.Msg, family, prefixLength int, ip net.IP) *dns.EDNS0_SUBNET {
	ecs := &dns.EDNS0_SUBNET{
		Code:          dns.EDNS0SUBNET,
		Family:        uint16(family),
		SourceNetmask: uint8(prefixLength),
		Address:       ip, // dns.OPT.pack() truncate this to SourceNetmask
	}

	optRR := FindOPT(msg)
	if optRR == nil { // if necessary, construct an OPT RR to contain the new ECS sub-opt
		optRR = NewOPT()
		msg.Extra = append(msg.Extra, optRR)
	}

	optRR.Option = append(optRR.Option, ecs)

	return ecs
}

// ReduceTTL decays every numeric "ttl" field found anywhere within value by "by" seconds, floored
// at "minimum". value is the generic map[string]any/[]any/scalar tree produced by
// json.Unmarshal(data, &value) - the same shape a cache entry's projected answer round-trips
// through - so this walks that tree recursively instead of a dns.Msg's Answer/Ns/Extra RRs, which
// is the only place a live TTL would otherwise be found.
//
// Returns the number of fields changed.
func ReduceTTL(value any, by, minimum int64) int {
	changeCount := 0
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			if strings.EqualFold(key, "ttl") {
				if f, ok := child.(float64); ok {
					if reduced, changed := reduceTTLValue(int64(f), by, minimum); changed {
						v[key] = float64(reduced)
						changeCount++
					}
				}
				continue
			}
			changeCount += ReduceTTL(child, by, minimum)
		}
	case []any:
		for _, child := range v {
			changeCount += ReduceTTL(child, by, minimum)
		}
	}

	return changeCount
}

// reduceTTLValue does the actual TTL reduction arithmetic for a single value. "by" and "minimum"
// are int64 so calcs in 64bit comfortably fit the full range of possible uint32 TTLs without
// contortions.
func reduceTTLValue(ttl, by, minimum int64) (reduced int64, changed bool) {
	if ttl <= minimum { // Cannot reduce a ttl if it's already at the minimum
		return ttl, false
	}
	reduced = ttl - by // Could go negative here
	if reduced < minimum {
		reduced = minimum
	}
	return reduced, reduced != ttl
}

// NewOPT creates a populated msg.OPT RR as a zero-values struct is not a valid OPT. Note that
// SetUDPSize has to be set for some resolvers that are ECS aware. In particular unbound does not
// seem to like a UDP size of zero.
func NewOPT() *dns.OPT {
	optRR := &dns.OPT{}
	optRR.SetVersion(0)
	optRR.SetUDPSize(dns.DefaultMsgSize)
	optRR.Hdr.Name = "."
	optRR.Hdr.Rrtype = dns.TypeOPT

	return optRR
}
