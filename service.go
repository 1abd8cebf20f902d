package tangerine

import (
	"context"

	"github.com/forwardemail/tangerine/internal/dnserr"
	"github.com/forwardemail/tangerine/internal/servicetable"
)

// ServiceResult is the outcome of LookupService.
type ServiceResult struct {
	Hostname string `json:"hostname"`
	Service  string `json:"service"`
}

// LookupService validates address and port, reverses address to a hostname, and consults the
// port/protocol -> service-name table (TCP first, then UDP) to derive the service name.
func (r *Resolver) LookupService(ctx context.Context, address string, port int) (ServiceResult, error) {
	if port < 1 || port > 65535 {
		return ServiceResult{}, &dnserr.Error{Code: dnserr.ErrSocketBadPort, Syscall: "getnameinfo", Hostname: address, Message: me + ": invalid port"}
	}

	names, err := r.Reverse(ctx, address)
	if err != nil {
		if derr, ok := err.(*dnserr.Error); ok {
			return ServiceResult{}, derr.WithSyscall("getnameinfo", address)
		}
		return ServiceResult{}, &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Syscall: "getnameinfo", Hostname: address, Message: me + ": " + err.Error()}
	}
	if len(names) == 0 {
		return ServiceResult{}, &dnserr.Error{Code: dnserr.NotFound, Syscall: "getnameinfo", Hostname: address, Message: me + ": no PTR record"}
	}

	service, _ := servicetable.Lookup(port)
	return ServiceResult{Hostname: names[0], Service: service}, nil
}
