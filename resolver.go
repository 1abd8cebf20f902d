package tangerine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/forwardemail/tangerine/internal/cache"
	"github.com/forwardemail/tangerine/internal/cancel"
	"github.com/forwardemail/tangerine/internal/concurrencytracker"
	"github.com/forwardemail/tangerine/internal/dnserr"
	"github.com/forwardemail/tangerine/internal/dnsutil"
	"github.com/forwardemail/tangerine/internal/hostsfile"
	"github.com/forwardemail/tangerine/internal/query"
	"github.com/forwardemail/tangerine/internal/rotation"
	"github.com/forwardemail/tangerine/internal/transport"

	"github.com/miekg/dns"
)

const me = "tangerine"

// Resolver is a DoH stub resolver. The zero value is not usable; construct with New.
type Resolver struct {
	config   Config
	rot      *rotation.Set
	engine   *query.Engine
	cache    *cache.Cache
	hosts    *hostsfile.Table
	active   *cancel.Registry
	inFlight concurrencytracker.Counter
}

// New constructs a Resolver from config, with opts applied after defaults and before validation -
// the same order a DoH resolver constructor validates ECS settings in before doing anything else.
func New(config Config, opts ...Option) (*Resolver, error) {
	config.applyDefaults()
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	rot, err := rotation.New(config.Servers)
	if err != nil {
		return nil, &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Message: me + ": " + err.Error()}
	}

	doer := config.Doer
	if doer == nil {
		client, err := transport.NewDefaultClient(transport.TLSOptions{
			InsecureSkipVerify: config.InsecureSkipVerify,
			UseSystemCAs:       config.UseSystemCAs,
			CACertFiles:        config.CACertFiles,
			ClientCertFile:     config.ClientCertFile,
			ClientKeyFile:      config.ClientKeyFile,
		})
		if err != nil {
			return nil, &dnserr.Error{Code: dnserr.EInval, Message: me + ": building default client: " + err.Error()}
		}
		doer = client
	}

	method := transport.MethodPost
	if config.UseGetMethod {
		method = transport.MethodGet
	}

	engine := query.New(query.Config{
		Tries:       config.Tries,
		Timeout:     config.Timeout,
		Method:      method,
		Protocol:    config.Protocol,
		SmartRotate: config.SmartRotate,
		Padding:     config.GeneratePadding,
		Trace:       config.Trace,
	}, doer, rot)

	hosts, err := loadHosts(config)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		config: config,
		rot:    rot,
		engine: engine,
		cache:  cache.New(config.Cache),
		hosts:  hosts,
		active: cancel.NewRegistry(),
	}, nil
}

// Cancel transitions every in-flight resolution to cancelled. Subsequent calls register fresh
// cancellation scopes.
func (r *Resolver) Cancel() {
	r.active.CancelAll()
}

// PeakConcurrency returns the highest number of DoH requests this Resolver has had in flight at
// once. When reset is true, the peak is rebased to the current in-flight count so a subsequent
// call reports only the peak since this call.
func (r *Resolver) PeakConcurrency(reset bool) int {
	return r.inFlight.Peak(reset)
}

// SetServers replaces the server rotation, deduplicating and resetting demotion state exactly as
// rotation.Set.SetServers does. The query engine shares this same *rotation.Set, so the change is
// visible to every resolution that starts afterwards; a resolution already in flight keeps the
// server order it started with.
func (r *Resolver) SetServers(servers []string) error {
	if err := r.rot.SetServers(servers); err != nil {
		return &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Message: me + ": " + err.Error()}
	}
	return nil
}

// Servers returns the current rotation order, reflecting any demotions from prior resolutions.
func (r *Resolver) Servers() []string {
	return r.rot.Order()
}

// Options controls a single Resolve call.
type Options struct {
	TTL             bool   // A/AAAA only: include per-answer TTL
	ECSSubnet       string // EDNS client-subnet to add to the packet and partition the cache key by
	PurgeCache      bool   // Ignore any cache entry and overwrite after resolution
	noThrowOnNODATA bool   // internal, used by lookup
}

// rrtypeTokens maps the public rrtype token vocabulary onto miekg/dns's numeric type. ANY is
// deliberately absent: it fans out into the per-type vector via ResolveAny rather than being a
// single qtype normalize() knows how to project.
var rrtypeTokens = map[string]uint16{
	"A": dns.TypeA, "AAAA": dns.TypeAAAA, "MX": dns.TypeMX, "TXT": dns.TypeTXT,
	"CNAME": dns.TypeCNAME, "NS": dns.TypeNS, "PTR": dns.TypePTR, "SOA": dns.TypeSOA,
	"SRV": dns.TypeSRV, "CAA": dns.TypeCAA, "NAPTR": dns.TypeNAPTR, "CERT": dns.TypeCERT,
	"TLSA": dns.TypeTLSA,
}

// isMalformedName rejects names beginning with '.' or containing consecutive dots, with the
// single exception of the name ".", which callers handle specially.
func isMalformedName(name string) bool {
	if name == "." {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return true
	}
	return false
}

// cacheKey composes rrtype.toLowerCase():[ecs:]name.toLowerCase().
func cacheKey(rrtype, ecsSubnet, name string) string {
	key := strings.ToLower(rrtype) + ":"
	if ecsSubnet != "" {
		key += ecsSubnet + ":"
	}
	return key + strings.ToLower(name)
}

// Resolve runs the generic per-rrtype operation: validate, consult cache, run the Query Engine on
// miss, normalize the decoded answer to the public shape for rrtype, and map rcode to an error.
func (r *Resolver) Resolve(ctx context.Context, name, rrtype string, opts Options) (any, error) {
	rtUpper := strings.ToUpper(rrtype)
	qtype, ok := rrtypeTokens[rtUpper]
	if !ok {
		return nil, &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Message: me + ": unknown rrtype " + rrtype}
	}
	if isMalformedName(name) {
		return nil, &dnserr.Error{Code: dnserr.BadName, Hostname: name, Syscall: "query" + titleCase(rtUpper), Message: me + ": malformed name " + name}
	}

	ascii, err := idnaEncode(name)
	if err != nil {
		return nil, err
	}

	key := cacheKey(rtUpper, opts.ECSSubnet, ascii)
	if !opts.PurgeCache {
		if entry, ok := r.cache.Get(key); ok {
			var decoded any
			if json.Unmarshal(entry.Value, &decoded) == nil {
				return decoded, nil
			}
		}
	} else {
		r.cache.Purge(key)
	}

	resp, err := r.fetch(ctx, ascii, qtype, opts)
	if err != nil {
		return nil, err
	}

	if resp.Rcode != dns.RcodeSuccess {
		code := dnserr.RcodeToCode(dns.RcodeToString[resp.Rcode])
		return nil, &dnserr.Error{Code: code, Hostname: name, Syscall: "query" + titleCase(rtUpper), Message: me + ": " + dns.RcodeToString[resp.Rcode]}
	}

	result, minTTL, err := normalize(resp, qtype, opts)
	if err != nil {
		return nil, err
	}
	if result == nil && !opts.noThrowOnNODATA {
		return nil, &dnserr.Error{Code: dnserr.NoData, Hostname: name, Syscall: "query" + titleCase(rtUpper), Message: me + ": no data"}
	}

	if !resp.Truncated && minTTL > 0 {
		if b, err := json.Marshal(result); err == nil {
			ttl := minTTL
			if ttl > uint32(r.config.MaxTTLSeconds) {
				ttl = uint32(r.config.MaxTTLSeconds)
			}
			r.cache.Set(key, b, int64(ttl))
		}
	}

	return result, nil
}

// fetch builds the packet, registers a cancellation scope, and runs it through the Query Engine.
func (r *Resolver) fetch(ctx context.Context, name string, qtype uint16, opts Options) (*dns.Msg, error) {
	r.inFlight.Add()
	defer r.inFlight.Done()

	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(name), qtype)
	q.Id = dns.Id()

	if opts.ECSSubnet != "" {
		if ip, ipnet, err := net.ParseCIDR(opts.ECSSubnet); err == nil {
			family, prefix := 1, 32
			if ip.To4() == nil {
				family, prefix = 2, 128
			}
			if ones, _ := ipnet.Mask.Size(); ones > 0 {
				prefix = ones
			}
			dnsutil.CreateECS(q, family, prefix, ip)
		}
	}

	scope := cancel.New(ctx)
	r.active.Register(scope)
	defer r.active.Deregister(scope)

	return r.engine.Resolve(scope, q)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ResolveA resolves an A record set.
func (r *Resolver) ResolveA(ctx context.Context, name string, opts Options) ([]AddressAnswer, error) {
	out, err := r.Resolve(ctx, name, "A", opts)
	if err != nil {
		return nil, err
	}
	return asAddresses(out), nil
}

// ResolveAAAA resolves an AAAA record set.
func (r *Resolver) ResolveAAAA(ctx context.Context, name string, opts Options) ([]AddressAnswer, error) {
	out, err := r.Resolve(ctx, name, "AAAA", opts)
	if err != nil {
		return nil, err
	}
	return asAddresses(out), nil
}

// ResolveCname resolves a CNAME record set.
func (r *Resolver) ResolveCname(ctx context.Context, name string, opts Options) ([]string, error) {
	return r.resolveStringList(ctx, name, "CNAME", opts)
}

// ResolveNs resolves an NS record set.
func (r *Resolver) ResolveNs(ctx context.Context, name string, opts Options) ([]string, error) {
	return r.resolveStringList(ctx, name, "NS", opts)
}

// ResolvePtr resolves a PTR record set.
func (r *Resolver) ResolvePtr(ctx context.Context, name string, opts Options) ([]string, error) {
	return r.resolveStringList(ctx, name, "PTR", opts)
}

// ResolveNaptr resolves a NAPTR record set.
func (r *Resolver) ResolveNaptr(ctx context.Context, name string, opts Options) ([]string, error) {
	return r.resolveStringList(ctx, name, "NAPTR", opts)
}

func (r *Resolver) resolveStringList(ctx context.Context, name, rrtype string, opts Options) ([]string, error) {
	out, err := r.Resolve(ctx, name, rrtype, opts)
	if err != nil {
		return nil, err
	}
	return asStringList(out), nil
}

// ResolveMx resolves an MX record set.
func (r *Resolver) ResolveMx(ctx context.Context, name string, opts Options) ([]MXAnswer, error) {
	out, err := r.Resolve(ctx, name, "MX", opts)
	if err != nil {
		return nil, err
	}
	return asMX(out), nil
}

// ResolveSrv resolves an SRV record set.
func (r *Resolver) ResolveSrv(ctx context.Context, name string, opts Options) ([]SRVAnswer, error) {
	out, err := r.Resolve(ctx, name, "SRV", opts)
	if err != nil {
		return nil, err
	}
	return asSRV(out), nil
}

// ResolveSoa resolves the zone's SOA record.
func (r *Resolver) ResolveSoa(ctx context.Context, name string, opts Options) (SOAAnswer, error) {
	out, err := r.Resolve(ctx, name, "SOA", opts)
	if err != nil {
		return SOAAnswer{}, err
	}
	return asSOA(out), nil
}

// ResolveCaa resolves a CAA record set.
func (r *Resolver) ResolveCaa(ctx context.Context, name string, opts Options) ([]CAAAnswer, error) {
	out, err := r.Resolve(ctx, name, "CAA", opts)
	if err != nil {
		return nil, err
	}
	return asCAA(out), nil
}

// ResolveCert resolves a CERT record set.
func (r *Resolver) ResolveCert(ctx context.Context, name string, opts Options) ([]CertAnswer, error) {
	out, err := r.Resolve(ctx, name, "CERT", opts)
	if err != nil {
		return nil, err
	}
	return asCert(out), nil
}

// ResolveTlsa resolves a TLSA record set.
func (r *Resolver) ResolveTlsa(ctx context.Context, name string, opts Options) ([]TLSAAnswer, error) {
	out, err := r.Resolve(ctx, name, "TLSA", opts)
	if err != nil {
		return nil, err
	}
	return asTLSA(out), nil
}

// ResolveTxt resolves a TXT record set; each answer's data is a list of UTF-8 strings, a singleton
// is still wrapped in its own slice.
func (r *Resolver) ResolveTxt(ctx context.Context, name string, opts Options) ([][]string, error) {
	out, err := r.Resolve(ctx, name, "TXT", opts)
	if err != nil {
		return nil, err
	}
	return asTXT(out), nil
}

// normalize filters resp.Answer to those RRs matching qtype and projects them to the public shape
// for that type, per the per-rrtype answer table. It returns the lowest TTL among the matched RRs
// (used as the cache entry's TTL), and nil result when nothing matched.
func normalize(resp *dns.Msg, qtype uint16, opts Options) (any, uint32, error) {
	var minTTL uint32 = 0
	have := false
	markTTL := func(ttl uint32) {
		if !have || ttl < minTTL {
			minTTL = ttl
			have = true
		}
	}

	switch qtype {
	case dns.TypeA, dns.TypeAAAA:
		var out []AddressAnswer
		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				if qtype == dns.TypeA {
					out = append(out, addressAnswer(v.A.String(), v.Hdr.Ttl, opts))
					markTTL(v.Hdr.Ttl)
				}
			case *dns.AAAA:
				if qtype == dns.TypeAAAA {
					out = append(out, addressAnswer(v.AAAA.String(), v.Hdr.Ttl, opts))
					markTTL(v.Hdr.Ttl)
				}
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeCNAME, dns.TypeNS, dns.TypePTR, dns.TypeNAPTR:
		var out []string
		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.CNAME:
				if qtype == dns.TypeCNAME {
					out = append(out, v.Target)
					markTTL(v.Hdr.Ttl)
				}
			case *dns.NS:
				if qtype == dns.TypeNS {
					out = append(out, v.Ns)
					markTTL(v.Hdr.Ttl)
				}
			case *dns.PTR:
				if qtype == dns.TypePTR {
					out = append(out, v.Ptr)
					markTTL(v.Hdr.Ttl)
				}
			case *dns.NAPTR:
				if qtype == dns.TypeNAPTR {
					out = append(out, fmt.Sprintf("%d %d %q %q %q %s", v.Order, v.Preference, v.Flags, v.Service, v.Regexp, v.Replacement))
					markTTL(v.Hdr.Ttl)
				}
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeMX:
		var out []MXAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.MX); ok {
				out = append(out, MXAnswer{Exchange: v.Mx, Priority: v.Preference})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeSRV:
		var out []SRVAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.SRV); ok {
				out = append(out, SRVAnswer{Name: v.Target, Port: v.Port, Priority: v.Priority, Weight: v.Weight})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeSOA:
		var out []SOAAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.SOA); ok {
				out = append(out, SOAAnswer{
					Nsname: v.Ns, Hostmaster: v.Mbox, Serial: v.Serial,
					Refresh: v.Refresh, Retry: v.Retry, Expire: v.Expire, Minttl: v.Minttl,
				})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		if len(out) == 1 {
			return out[0], minTTL, nil
		}
		return out, minTTL, nil

	case dns.TypeCAA:
		var out []CAAAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.CAA); ok {
				out = append(out, CAAAnswer{Critical: v.Flag, Tag: v.Tag, Value: v.Value})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeCERT:
		var out []CertAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.CERT); ok {
				name := certTypeNames[v.Type]
				if name == "" {
					name = fmt.Sprintf("%d", v.Type)
				}
				out = append(out, CertAnswer{
					Name: v.Hdr.Name, TTL: v.Hdr.Ttl, CertificateType: name,
					KeyTag: v.KeyTag, Algorithm: v.Algorithm,
					Certificate: v.Certificate, // miekg/dns already holds the remainder as base64 text
				})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeTLSA:
		var out []TLSAAnswer
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.TLSA); ok {
				out = append(out, TLSAAnswer{
					Name: v.Hdr.Name, TTL: v.Hdr.Ttl,
					Usage: v.Usage, Selector: v.Selector,
					Mtype: v.MatchingType, MatchingType: v.MatchingType,
					Cert: v.Certificate, Certificate: v.Certificate,
				})
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil

	case dns.TypeTXT:
		var out [][]string
		for _, rr := range resp.Answer {
			if v, ok := rr.(*dns.TXT); ok {
				out = append(out, append([]string{}, v.Txt...))
				markTTL(v.Hdr.Ttl)
			}
		}
		if out == nil {
			return nil, 0, nil
		}
		return out, minTTL, nil
	}

	return nil, 0, &dnserr.Error{Code: dnserr.ErrInvalidArgValue, Message: me + ": unsupported rrtype in normalize"}
}

func addressAnswer(address string, ttl uint32, opts Options) AddressAnswer {
	a := AddressAnswer{Address: address}
	if opts.TTL {
		a.TTL = ttl
	}
	return a
}

// The as* helpers re-decode a cache hit (a generic any from JSON) or a freshly normalized value
// into its typed shape; both paths funnel through json round-tripping so a cache hit and a live
// decode look identical to callers.
func reencode[T any](in any) T {
	var out T
	b, err := json.Marshal(in)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

func asAddresses(in any) []AddressAnswer   { return reencode[[]AddressAnswer](in) }
func asStringList(in any) []string         { return reencode[[]string](in) }
func asMX(in any) []MXAnswer               { return reencode[[]MXAnswer](in) }
func asSRV(in any) []SRVAnswer             { return reencode[[]SRVAnswer](in) }
func asSOA(in any) SOAAnswer               { return reencode[SOAAnswer](in) }
func asCAA(in any) []CAAAnswer             { return reencode[[]CAAAnswer](in) }
func asCert(in any) []CertAnswer           { return reencode[[]CertAnswer](in) }
func asTLSA(in any) []TLSAAnswer           { return reencode[[]TLSAAnswer](in) }
func asTXT(in any) [][]string              { return reencode[[][]string](in) }
