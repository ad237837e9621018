// Package engine orchestrates the Akari lookup pipeline. It fans the
// (domain, record type) pairs out over a bounded worker pool or processes
// them sequentially, funnels every result through a single collector, and
// triggers geolocation enrichment for successful A lookups.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Kuraiyume/Akari/internal/geo"
	"github.com/Kuraiyume/Akari/internal/log"
	"github.com/Kuraiyume/Akari/internal/resolver"
)

// DefaultWorkers is the worker-pool size used when none is configured.
const DefaultWorkers = 10

// Pair is the unit of dispatch: one lookup task per (domain, type) pair.
type Pair struct {
	Domain string
	Type   string
}

// Engine runs a batch of lookups and produces the aggregate result lines.
// The resolver it is given is expected to carry whatever retry policy the
// caller wants; the engine itself never retries.
type Engine struct {
	resolver resolver.Querier
	geo      geo.Locator   // nil disables enrichment
	limiter  *rate.Limiter // nil disables rate limiting
	workers  int
	stream   func(lines []string) // optional per-pair sink

	pairs   atomic.Int64
	failed  atomic.Int64
	records atomic.Int64
}

// Opt is a function option for configuring the Engine.
type Opt func(e *Engine)

// New creates an Engine over the given resolver.
func New(q resolver.Querier, opts ...Opt) *Engine {
	e := &Engine{
		resolver: q,
		workers:  DefaultWorkers,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// WithGeolocator enables geolocation enrichment for A-record results.
func WithGeolocator(g geo.Locator) Opt {
	return func(e *Engine) {
		e.geo = g
	}
}

// WithWorkers sets the worker-pool size. A value of 1 or less selects
// sequential mode, which preserves input order exactly.
func WithWorkers(n int) Opt {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithRateLimit caps the overall query rate at qps queries per second.
// Zero or negative disables the limiter.
func WithRateLimit(qps int) Opt {
	return func(e *Engine) {
		if qps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

// WithStream registers a callback invoked once per completed pair with
// that pair's lines. Streaming output and the final aggregate are
// independent sinks; the callback is always invoked from a single
// goroutine, in completion order.
func WithStream(fn func(lines []string)) Opt {
	return func(e *Engine) {
		e.stream = fn
	}
}

// Pairs expands domains × types into the dispatch list, preserving
// input order: all types for the first domain, then the next domain.
func Pairs(domains, types []string) []Pair {
	pairs := make([]Pair, 0, len(domains)*len(types))
	for _, d := range domains {
		for _, t := range types {
			pairs = append(pairs, Pair{Domain: d, Type: t})
		}
	}
	return pairs
}

// Run executes every pair and returns the concatenated result lines.
// In sequential mode (workers <= 1) the output preserves input order;
// in parallel mode pairs are merged in completion order, though lines
// within one pair stay together and in order. Every pair contributes at
// least one line: lookup failures are contained per pair and rendered,
// never propagated. Only context cancellation aborts the batch.
func (e *Engine) Run(ctx context.Context, pairs []Pair) ([]string, error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Debugf("engine: run %s starting: %d pairs, %d workers", runID, len(pairs), e.workers)

	var (
		results []string
		err     error
	)
	if e.workers <= 1 {
		results, err = e.runSequential(ctx, pairs)
	} else {
		results, err = e.runParallel(ctx, pairs)
	}

	log.Infof("engine: run %s done: pairs=%d failed=%d records=%d elapsed=%s",
		runID, e.pairs.Load(), e.failed.Load(), e.records.Load(),
		time.Since(start).Round(time.Millisecond))
	return results, err
}

func (e *Engine) runSequential(ctx context.Context, pairs []Pair) ([]string, error) {
	var out []string
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		lines := e.runPair(ctx, p)
		if e.stream != nil {
			e.stream(lines)
		}
		out = append(out, lines...)
	}
	return out, nil
}

func (e *Engine) runParallel(ctx context.Context, pairs []Pair) ([]string, error) {
	resultCh := make(chan []string, e.workers)

	// Single collector owns the aggregate; workers only send.
	var out []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for lines := range resultCh {
			if e.stream != nil {
				e.stream(lines)
			}
			out = append(out, lines...)
		}
	}()

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(e.workers)
	for _, p := range pairs {
		p := p
		grp.Go(func() error {
			// Tasks never return errors: a pair's failure is rendered
			// as its result, so one exhausted pair can't cancel the
			// batch through the group.
			resultCh <- e.runPair(grpCtx, p)
			return nil
		})
	}

	err := grp.Wait()
	close(resultCh)
	<-done
	return out, err
}

// runPair resolves one pair and renders its block of lines, including
// the optional geolocation block. It always returns at least one line.
func (e *Engine) runPair(ctx context.Context, p Pair) []string {
	e.pairs.Inc()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			e.failed.Inc()
			return resolver.Classify(p.Domain, p.Type, err).Lines()
		}
	}

	lookup, err := e.resolver.Resolve(ctx, p.Domain, p.Type)
	if err != nil {
		e.failed.Inc()
		lookup = resolver.Classify(p.Domain, p.Type, err)
	}

	lines := lookup.Lines()
	if lookup.Status == resolver.StatusSuccess {
		e.records.Add(int64(len(lookup.Records)))
	}

	lines = append(lines, e.enrich(ctx, lookup)...)
	return lines
}

// enrich produces the geolocation block for a successful A lookup.
// Enrichment is gated on record type and a configured locator; it is
// never invoked otherwise. Per-IP failures surface as lines inside the
// block and never escalate.
func (e *Engine) enrich(ctx context.Context, lookup *resolver.Lookup) []string {
	if e.geo == nil || lookup.Type != "A" || lookup.Status != resolver.StatusSuccess {
		return nil
	}
	ips := lookup.IPv4Addrs()
	if len(ips) == 0 {
		return nil
	}

	recs, err := e.geo.Lookup(ctx, ips)
	if err != nil {
		log.Warnf("engine: geolocation partly failed for %s: %v", lookup.Domain, err)
	}

	// Emit blocks in resolved-IP order so repeated runs are
	// byte-identical.
	var lines []string
	seen := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}
		if rec, ok := recs[ip]; ok {
			lines = append(lines, rec.Lines()...)
		}
	}
	return lines
}
