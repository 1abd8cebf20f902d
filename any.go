package tangerine

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/forwardemail/tangerine/internal/dnserr"
)

// anyTypeVector is the fixed set of record types resolveAny fans out over.
var anyTypeVector = []string{"A", "AAAA", "CNAME", "MX", "NAPTR", "NS", "PTR", "SOA", "SRV", "TXT"}

// ResolveAny fans out resolveAny's fixed type vector with worker-pool concurrency =
// Config.Concurrency, sharing one cancellation-carrying context across every child so that any
// non-NODATA child failure cancels its siblings. Each index of the fixed type vector gets its own
// slot in the per-call results slice, so no two goroutines ever write the same slot and no shared
// mutable state needs to be synchronized beyond the slice's own memory, which is never resized
// concurrently. Per-type results preserve the order of anyTypeVector; NODATA children are
// swallowed (omitted from the result) rather than aborting the whole call.
func (r *Resolver) ResolveAny(ctx context.Context, name string, opts Options) ([]AnyAnswer, error) {
	sem := semaphore.NewWeighted(int64(r.config.Concurrency))
	group, gctx := errgroup.WithContext(ctx)

	perType := make([][]AnyAnswer, len(anyTypeVector))
	childOpts := opts
	childOpts.noThrowOnNODATA = true

	for i, rrtype := range anyTypeVector {
		i, rrtype := i, rrtype
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			out, err := r.Resolve(gctx, name, rrtype, childOpts)
			if err != nil {
				if derr, ok := err.(*dnserr.Error); ok && derr.Code == dnserr.NoData {
					return nil
				}
				return err
			}
			perType[i] = projectAny(rrtype, out)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]AnyAnswer, 0, len(anyTypeVector))
	for _, answers := range perType {
		out = append(out, answers...)
	}
	return out, nil
}

// projectAny converts a Resolve result for rrtype into resolveAny's tagged shape.
func projectAny(rrtype string, out any) []AnyAnswer {
	switch rrtype {
	case "A", "AAAA":
		var answers []AnyAnswer
		for _, a := range reencode[[]AddressAnswer](out) {
			answers = append(answers, AnyAnswer{Type: rrtype, Address: a.Address, TTL: a.TTL})
		}
		return answers
	case "MX":
		var answers []AnyAnswer
		for _, m := range reencode[[]MXAnswer](out) {
			answers = append(answers, AnyAnswer{Type: rrtype, Exchange: m.Exchange, Priority: m.Priority})
		}
		return answers
	case "SOA":
		soa := reencode[SOAAnswer](out)
		return []AnyAnswer{{Type: rrtype, SOAAnswer: soa}}
	case "TXT":
		var answers []AnyAnswer
		for _, entry := range reencode[[][]string](out) {
			answers = append(answers, AnyAnswer{Type: rrtype, Entries: entry})
		}
		return answers
	case "CNAME", "NAPTR", "NS", "PTR":
		var answers []AnyAnswer
		for _, v := range reencode[[]string](out) {
			answers = append(answers, AnyAnswer{Type: rrtype, Value: v})
		}
		return answers
	case "SRV":
		var answers []AnyAnswer
		for _, s := range reencode[[]SRVAnswer](out) {
			answers = append(answers, AnyAnswer{Type: rrtype, Value: s.Name})
		}
		return answers
	}
	return nil
}
