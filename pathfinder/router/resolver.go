package router

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

var resolverLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	resolverLog = zerolog.New(out).With().Timestamp().Str("component", "resolver").Logger()
}

// State of a best-trade resolution.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSyncing
	StateValid
	StateInvalid
	StateNoRouteFound
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoading:
		return "LOADING"
	case StateSyncing:
		return "SYNCING"
	case StateValid:
		return "VALID"
	case StateInvalid:
		return "INVALID"
	case StateNoRouteFound:
		return "NO_ROUTE_FOUND"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultDebounce is how long input must stay unchanged before quotes are fetched.
const DefaultDebounce = 100 * time.Millisecond

// USDPricer values an amount in US dollars.
type USDPricer interface {
	USDValue(ctx context.Context, amount models.CurrencyAmount) (decimal.Decimal, error)
}

// Result is the resolver's view of the latest request.
type Result struct {
	State State
	// Trade is the winning quote. It is kept while a newer request is syncing.
	Trade *models.QuoteEstimate
	// Savings is the USD value of the savings source's output, nil when unknown.
	Savings    *decimal.Decimal
	Generation uint64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDebounce sets the input debounce window.
func WithDebounce(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.debounce = d
	}
}

// WithSavingsSource names the source whose output is valued for the savings figure.
func WithSavingsSource(source string) ResolverOption {
	return func(r *Resolver) {
		r.savingsSource = source
	}
}

// WithMetrics records fetch outcomes on m.
func WithMetrics(m *Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// Resolver keeps the best quote for the most recent trade request. Requests are
// debounced, every fetch cycle is tagged with a generation and only the result of the
// latest generation is ever applied.
type Resolver struct {
	fetchers      []brokers.QuoteFetcher
	pricer        USDPricer
	debounce      time.Duration
	savingsSource string
	metrics       *Metrics
	tracer        trace.Tracer

	mu          sync.Mutex
	generation  uint64
	visible     bool
	pending     *pendingRequest
	timer       *time.Timer
	cancelCycle context.CancelFunc
	result      Result
	subscribers []chan Result
	closed      bool
}

type pendingRequest struct {
	ctx     context.Context
	req     brokers.PairRequest
	fetched bool
}

// NewResolver creates a resolver over fetchers. pricer may be nil, in which case no
// savings figure is reported.
func NewResolver(fetchers []brokers.QuoteFetcher, pricer USDPricer, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetchers:      fetchers,
		pricer:        pricer,
		debounce:      DefaultDebounce,
		savingsSource: brokers.SourceOneInch,
		tracer:        otel.Tracer("github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"),
		visible:       true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update replaces the request being resolved. Fetching starts once no further update
// arrives for the debounce window.
func (r *Resolver) Update(ctx context.Context, req brokers.PairRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.generation++
	r.pending = &pendingRequest{ctx: ctx, req: req}
	r.result.Generation = r.generation
	r.result.State = r.waitingState()
	r.publishLocked()

	if r.visible {
		r.scheduleLocked()
	}
}

// SetVisible gates fetching. While hidden no cycle starts and the current result stays.
// Becoming visible again resolves a request that arrived while hidden.
func (r *Resolver) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.visible == visible {
		return
	}
	r.visible = visible
	if !visible {
		if r.timer != nil {
			r.timer.Stop()
		}
		return
	}
	if r.pending != nil && !r.pending.fetched {
		r.scheduleLocked()
	}
}

// Snapshot returns the current result.
func (r *Resolver) Snapshot() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Subscribe returns a channel that receives every published result. Only the newest
// unread result is buffered. The channel is closed by Close.
func (r *Resolver) Subscribe() <-chan Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Result, 1)
	if r.closed {
		close(ch)
		return ch
	}
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Close stops pending timers, cancels the running cycle and closes subscriptions.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.cancelCycle != nil {
		r.cancelCycle()
	}
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}

func (r *Resolver) waitingState() State {
	if r.result.Trade != nil {
		return StateSyncing
	}
	return StateLoading
}

func (r *Resolver) scheduleLocked() {
	gen := r.generation
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.fire(gen)
	})
}

func (r *Resolver) fire(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.generation || !r.visible || r.pending == nil {
		r.mu.Unlock()
		return
	}
	pending := r.pending
	pending.fetched = true
	if r.cancelCycle != nil {
		r.cancelCycle()
	}
	ctx, cancel := context.WithCancel(pending.ctx)
	r.cancelCycle = cancel
	r.mu.Unlock()

	go func() {
		defer cancel()
		result := r.resolve(ctx, gen, pending.req)
		r.apply(result)
	}()
}

func (r *Resolver) resolve(ctx context.Context, gen uint64, req brokers.PairRequest) Result {
	ctx, span := r.tracer.Start(ctx, "Resolver.resolve", trace.WithAttributes(
		attribute.Int64("generation", int64(gen)),
		attribute.String("request", req.Key()),
	))
	defer span.End()

	quotes := FetchAll(ctx, r.fetchers, req, r.metrics, r.tracer)
	best := PickBest(quotes...)

	result := Result{Generation: gen, Trade: best}
	switch {
	case best == nil:
		result.State = StateInvalid
	case best.HasNoRoute():
		result.State = StateNoRouteFound
	default:
		result.State = StateValid
	}
	span.SetAttributes(attribute.String("state", result.State.String()))
	if best != nil {
		span.SetAttributes(attribute.String("winner", best.Source))
	}

	result.Savings = r.savings(ctx, quotes)
	return result
}

func (r *Resolver) savings(ctx context.Context, quotes []*models.QuoteEstimate) *decimal.Decimal {
	if r.pricer == nil {
		return nil
	}
	for _, q := range quotes {
		if q == nil || q.Source != r.savingsSource {
			continue
		}
		usd, err := r.pricer.USDValue(ctx, q.OutputAmount)
		if err != nil {
			resolverLog.Debug().Err(err).Str("source", q.Source).Msg("No USD value for savings")
			return nil
		}
		return &usd
	}
	return nil
}

func (r *Resolver) apply(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if result.Generation != r.generation {
		resolverLog.Debug().
			Uint64("generation", result.Generation).
			Uint64("latest", r.generation).
			Msg("Discarding stale quote result")
		r.metrics.observeStale()
		return
	}

	r.result = result
	r.metrics.observeCycle(result.State)
	event := resolverLog.Info().Uint64("generation", result.Generation).Str("state", result.State.String())
	if result.Trade != nil {
		event = event.Str("source", result.Trade.Source).Stringer("amountOut", result.Trade.Output())
	}
	event.Msg("Best trade resolved")
	r.publishLocked()
}

func (r *Resolver) publishLocked() {
	for _, ch := range r.subscribers {
		select {
		case ch <- r.result:
		default:
			// drop the unread result so the subscriber sees the newest one
			select {
			case <-ch:
			default:
			}
			ch <- r.result
		}
	}
}

// FetchAll queries every fetcher concurrently and waits for all of them. The returned
// slice is index-aligned with fetchers; a failed fetch leaves a nil entry and never
// cancels its peers.
func FetchAll(ctx context.Context, fetchers []brokers.QuoteFetcher, req brokers.PairRequest, metrics *Metrics, tracer trace.Tracer) []*models.QuoteEstimate {
	if tracer == nil {
		tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-swap/pathfinder/router")
	}
	quotes := make([]*models.QuoteEstimate, len(fetchers))
	var g errgroup.Group
	for i, fetcher := range fetchers {
		g.Go(func() error {
			source := fetcher.GetBrokerType()
			fetchCtx, span := tracer.Start(ctx, "QuoteFetcher.FetchQuote", trace.WithAttributes(
				attribute.String("source", source),
			))
			defer span.End()

			start := time.Now()
			quote, err := fetcher.FetchQuote(fetchCtx, req)
			metrics.observeFetch(source, start, err)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				resolverLog.Warn().Err(err).Str("source", source).Msg("Quote source excluded")
				return nil
			}
			quotes[i] = quote
			return nil
		})
	}
	_ = g.Wait()
	return quotes
}
