package tangerine

import (
	"context"
	"net"

	"github.com/forwardemail/tangerine/internal/dnserr"

	"github.com/miekg/dns"
)

// Reverse computes the standard .in-addr.arpa/.ip6.arpa name for ip, honors hosts-file entries
// whose IP equals ip, and otherwise issues a PTR query. On transport errors the error's syscall is
// relabeled getHostByAddr.
func (r *Resolver) Reverse(ctx context.Context, ip string) ([]string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Syscall: "getHostByAddr", Hostname: ip, Message: me + ": not an IP address: " + ip}
	}

	if names := r.hosts.LookupAddr(parsed); len(names) > 0 {
		if len(names) == 1 {
			return nil, nil
		}
		return names[1:], nil // minus the first entry, per platform convention
	}

	arpa, err := dns.ReverseAddr(parsed.String())
	if err != nil {
		return nil, &dnserr.Error{Code: dnserr.BadName, Syscall: "getHostByAddr", Hostname: ip, Message: me + ": " + err.Error()}
	}

	names, err := r.ResolvePtr(ctx, arpa, Options{})
	if err != nil {
		if derr, ok := err.(*dnserr.Error); ok {
			return nil, derr.WithSyscall("getHostByAddr", ip)
		}
		return nil, &dnserr.Error{Code: dnserr.BadResp, Syscall: "getHostByAddr", Hostname: ip, Message: me + ": " + err.Error()}
	}
	return names, nil
}
