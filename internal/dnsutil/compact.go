package dnsutil

import (
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// CompactMsgString renders a dns.Msg as a single printable line suitable for a trace log: enough of
// the header, question, and RR sections to diagnose a query/response pair without the multi-line
// verbosity of dns.Msg.String().
//
// Format: id/opcode/rcode (flagBits) qclass/qtype/qname ancount/nscount/arcount A:<answers> N:<auths> E:<extras>
func CompactMsgString(m *dns.Msg) string {
	var b strings.Builder

	b.WriteString(strconv.Itoa(int(m.MsgHdr.Id)))
	b.WriteByte('/')
	b.WriteString(shortOpcode(m.MsgHdr.Opcode))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(m.MsgHdr.Rcode))
	b.WriteString(" (")
	b.WriteString(headerFlagBits(m.MsgHdr))
	b.WriteString(") ")

	qClass, qType, qName := "?", "?", "?"
	if len(m.Question) > 0 {
		q := m.Question[0]
		qClass = dns.ClassToString[q.Qclass]
		qType = dns.TypeToString[q.Qtype]
		qName = q.Name
	}
	b.WriteString(qClass)
	b.WriteByte('/')
	b.WriteString(qType)
	b.WriteByte('/')
	b.WriteString(qName)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(m.Answer)))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(len(m.Ns)))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(len(m.Extra)))

	b.WriteString(" A:" + CompactRRsString(m.Answer))
	b.WriteString(" N:" + CompactRRsString(m.Ns))
	b.WriteString(" E:" + CompactRRsString(m.Extra))

	return b.String()
}

// headerFlagBits renders the single-letter flag summary used between the rcode and the question
// fields of CompactMsgString's output.
func headerFlagBits(hdr dns.MsgHdr) string {
	var b strings.Builder
	for _, f := range []struct {
		set  bool
		char byte
	}{
		{hdr.Response, 'R'},
		{hdr.Authoritative, 'A'},
		{hdr.Truncated, 'T'},
		{hdr.RecursionDesired, 'd'},
		{hdr.RecursionAvailable, 'a'},
		{hdr.Zero, 'Z'},
		{hdr.AuthenticatedData, 's'},
		{hdr.CheckingDisabled, 'x'},
	} {
		if f.set {
			b.WriteByte(f.char)
		}
	}
	return b.String()
}

// shortOpcode truncates dns.OpcodeToString's name to its first two characters, falling back to "?"
// for an opcode the library doesn't name.
func shortOpcode(opcode int) string {
	name, ok := dns.OpcodeToString[opcode]
	if !ok || len(name) < 2 {
		return "?"
	}
	return name[:2]
}

// CompactRRsString renders rrs as a "/"-separated sequence of compact per-record summaries, used by
// CompactMsgString for each of a message's three RR sections.
func CompactRRsString(rrs []dns.RR) string {
	parts := make([]string, len(rrs))
	for i, rr := range rrs {
		parts[i] = compactRR(rr)
	}
	return strings.Join(parts, "/")
}

// compactRR summarizes one RR; types without a dedicated case fall back to their type name alone.
func compactRR(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return "A*" + v.A.String()
	case *dns.AAAA:
		return "AAAA*" + v.AAAA.String()
	case *dns.MX:
		return "MX*" + strconv.Itoa(int(v.Preference)) + "-" + v.Mx
	case *dns.NS:
		return "NS*" + v.Ns
	case *dns.SRV:
		return "SRV*" + strconv.Itoa(int(v.Priority)) + "-" + strconv.Itoa(int(v.Weight)) + "-" + v.Target + ":" + strconv.Itoa(int(v.Port))
	case *dns.OPT:
		return compactOPT(v)
	default:
		return dns.TypeToString[rr.Header().Rrtype]
	}
}

// compactOPT summarizes an OPT pseudo-RR's version/extended-rcode/UDP size plus each EDNS0 option it
// carries, by name where a name is known and by numeric option code otherwise.
func compactOPT(opt *dns.OPT) string {
	opts := make([]string, len(opt.Option))
	for i, option := range opt.Option {
		opts[i] = compactEDNS0(option)
	}
	return "OPT(" + strconv.Itoa(int(opt.Version())) + "," + strconv.Itoa(int(opt.ExtendedRcode())) + "," +
		strconv.Itoa(int(opt.UDPSize())) + ":" + strings.Join(opts, ",") + ")"
}

func compactEDNS0(option dns.EDNS0) string {
	switch o := option.(type) {
	case *dns.EDNS0_NSID:
		return "NSID"
	case *dns.EDNS0_SUBNET:
		return "ECS[" + strconv.Itoa(int(o.SourceNetmask)) + "/" + strconv.Itoa(int(o.SourceScope)) + "]"
	case *dns.EDNS0_COOKIE:
		return "COOKIE"
	case *dns.EDNS0_UL:
		return "UL"
	case *dns.EDNS0_LLQ:
		return "LLQ"
	case *dns.EDNS0_DAU:
		return "DAU"
	case *dns.EDNS0_DHU:
		return "DHU"
	case *dns.EDNS0_LOCAL:
		return "LOCAL"
	case *dns.EDNS0_PADDING:
		return "PAD"
	default:
		return strconv.Itoa(int(option.Option()))
	}
}
