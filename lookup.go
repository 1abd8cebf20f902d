package tangerine

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forwardemail/tangerine/internal/addrconfig"
	"github.com/forwardemail/tangerine/internal/dnserr"
)

// Hint bits for LookupOptions.Hints, mirroring the getaddrinfo AI_* flags this module stands in
// for.
const (
	HintADDRCONFIG = 1 << iota
	HintV4MAPPED
	HintALL
)

// LookupOptions controls Lookup. The zero value resolves both families, unsorted hints off,
// non-verbatim ordering (IPv4 first).
type LookupOptions struct {
	Family     int // 0 (both), 4, or 6
	Hints      int // bitmask of Hint* constants
	All        bool
	Verbatim   bool
	PurgeCache bool
}

// Lookup implements the hostname -> address algorithm: hosts-file shortcut, parallel A+AAAA,
// family filtering and hint handling, then ordering.
//
// The ADDRCONFIG hint is applied before the A/AAAA dispatch rather than after: this implementation
// computes the ADDRCONFIG-derived family once, up front, and only issues the query for a family
// that's actually wanted, instead of querying both and discarding one set of answers afterward.
func (r *Resolver) Lookup(ctx context.Context, name string, opts LookupOptions) ([]LookupAddress, error) {
	if name == "." {
		return nil, &dnserr.Error{Code: dnserr.NotFound, Hostname: name, Syscall: "getaddrinfo", Message: me + ": \".\" is not a resolvable name"}
	}

	family := opts.Family
	if opts.Hints&HintADDRCONFIG != 0 {
		if f, err := addrconfig.Family(); err == nil {
			family = f
		}
	}

	v4, v6, err := r.lookupHostsOrLiteral(name)
	if err != nil {
		return nil, err
	}

	needV4 := family == 0 || family == 4
	needV6 := family == 0 || family == 6

	var errMu sync.Mutex
	var gerr error
	recordErr := func(err error) {
		errMu.Lock()
		if gerr == nil {
			gerr = err
		}
		errMu.Unlock()
	}

	group, gctx := errgroup.WithContext(ctx)
	if v4 == nil && needV4 {
		group.Go(func() error {
			answers, err := r.ResolveA(gctx, name, Options{noThrowOnNODATA: true, PurgeCache: opts.PurgeCache})
			if err != nil {
				recordErr(err) // errors are collected, not propagated; see the empty-answers branch below
				return nil
			}
			for _, a := range answers {
				v4 = append(v4, net.ParseIP(a.Address))
			}
			return nil
		})
	}
	if v6 == nil && needV6 {
		group.Go(func() error {
			answers, err := r.ResolveAAAA(gctx, name, Options{noThrowOnNODATA: true, PurgeCache: opts.PurgeCache})
			if err != nil {
				recordErr(err)
				return nil
			}
			for _, a := range answers {
				v6 = append(v6, net.ParseIP(a.Address))
			}
			return nil
		})
	}
	_ = group.Wait()

	var addrs []LookupAddress
	for _, ip := range v4 {
		addrs = append(addrs, LookupAddress{Address: ip.String(), Family: 4})
	}
	for _, ip := range v6 {
		addrs = append(addrs, LookupAddress{Address: ip.String(), Family: 6})
	}

	if len(addrs) == 0 {
		if gerr != nil {
			code := dnserr.BadName
			if derr, ok := gerr.(*dnserr.Error); ok {
				code = derr.Code
				if code == dnserr.BadName {
					code = dnserr.NotFound
				}
			}
			return nil, &dnserr.Error{Code: code, Hostname: name, Syscall: "getaddrinfo", Message: me + ": " + gerr.Error()}
		}
		return nil, &dnserr.Error{Code: dnserr.NoData, Hostname: name, Syscall: "getaddrinfo", Message: me + ": no addresses found"}
	}

	// If only one family produced answers and no explicit family was requested, return just that
	// family rather than an (empty, populated) pair.
	if family == 0 {
		haveV4, haveV6 := len(v4) > 0, len(v6) > 0
		if haveV4 != haveV6 {
			if haveV4 {
				family = 4
			} else {
				family = 6
			}
		}
	}

	if opts.Hints&HintV4MAPPED != 0 && family == 6 {
		hasV6 := false
		for _, a := range addrs {
			if a.Family == 6 {
				hasV6 = true
				break
			}
		}
		if !hasV6 {
			for i := range addrs {
				if addrs[i].Family == 4 {
					addrs[i] = LookupAddress{Address: "::ffff:" + addrs[i].Address, Family: 6}
				}
			}
		}
	}

	if opts.Hints&HintALL != 0 {
		opts.All = true
	}

	if family == 4 || family == 6 {
		filtered := addrs[:0:0]
		for _, a := range addrs {
			if a.Family == family {
				filtered = append(filtered, a)
			}
		}
		addrs = filtered
	}

	if !opts.Verbatim {
		sort.SliceStable(addrs, func(i, j int) bool { return addrs[i].Family < addrs[j].Family })
	}

	if len(addrs) == 0 {
		return nil, &dnserr.Error{Code: dnserr.NoData, Hostname: name, Syscall: "getaddrinfo", Message: me + ": no addresses match requested family"}
	}

	if opts.All {
		return addrs, nil
	}
	return addrs[:1], nil
}

// lookupHostsOrLiteral applies the hosts-file shortcut: an IP literal short-circuits directly, a
// hosts-table match seeds the corresponding family bucket, and the bare name "localhost" defaults
// to 127.0.0.1/::1 when hosts didn't already supply something.
func (r *Resolver) lookupHostsOrLiteral(name string) (v4, v6 []net.IP, err error) {
	bare := strings.TrimSuffix(name, ".")

	if ip := net.ParseIP(bare); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return []net.IP{ip4}, nil, nil
		}
		return nil, []net.IP{ip}, nil
	}

	v4, v6 = r.hosts.LookupName(bare)

	if strings.EqualFold(bare, "localhost") {
		if len(v4) == 0 {
			v4 = []net.IP{net.ParseIP("127.0.0.1")}
		}
		if len(v6) == 0 {
			v6 = []net.IP{net.ParseIP("::1")}
		}
	}

	return v4, v6, nil
}
