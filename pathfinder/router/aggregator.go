package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/oneinch"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
)

// ErrNoAggregatedQuote is returned when neither provider produced a quote.
var ErrNoAggregatedQuote = errors.New("no provider returned a quote")

// AggregatedQuote holds exactly one provider payload, tagged by Source.
type AggregatedQuote struct {
	Source  string
	OneInch *oneinch.QuoteResponse
	ZeroX   *zerox.QuoteResponse
}

// OutputAmount is the provider's output in raw base units of the output token.
func (q *AggregatedQuote) OutputAmount() *big.Int {
	switch {
	case q.OneInch != nil:
		return q.OneInch.ToTokenAmount.Value()
	case q.ZeroX != nil:
		return q.ZeroX.BuyAmount.Value()
	}
	return new(big.Int)
}

// EstimatedGas is the provider's gas estimate, zero when absent.
func (q *AggregatedQuote) EstimatedGas() *big.Int {
	switch {
	case q.OneInch != nil:
		return q.OneInch.EstimatedGas.Value()
	case q.ZeroX != nil:
		if q.ZeroX.EstimatedGas.IsSet() {
			return q.ZeroX.EstimatedGas.Value()
		}
		return q.ZeroX.Gas.Value()
	}
	return new(big.Int)
}

// Normalize converts the tagged payload into the shared quote shape.
func (q *AggregatedQuote) Normalize(req brokers.PairRequest) (*models.QuoteEstimate, error) {
	switch {
	case q.OneInch != nil:
		return q.OneInch.Normalize(req)
	case q.ZeroX != nil:
		return q.ZeroX.Normalize(req)
	}
	return nil, fmt.Errorf("%w: empty %s payload", brokers.ErrNoQuote, q.Source)
}

// MarshalJSON writes the provider payload unchanged with an added "source" field.
func (q AggregatedQuote) MarshalJSON() ([]byte, error) {
	var payload any
	switch {
	case q.OneInch != nil:
		payload = q.OneInch
	case q.ZeroX != nil:
		payload = q.ZeroX
	default:
		return json.Marshal(map[string]string{"source": q.Source})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	source, err := json.Marshal(q.Source)
	if err != nil {
		return nil, err
	}
	fields["source"] = source
	return json.Marshal(fields)
}

// CompareRoutes picks between a 1inch and a 0x quote. Outputs are compared in raw base
// units of the output token. On equal output 1inch wins only when 0x reports strictly
// more gas. A nil side loses.
func CompareRoutes(oneInch, zeroX *AggregatedQuote) *AggregatedQuote {
	switch {
	case oneInch == nil:
		return zeroX
	case zeroX == nil:
		return oneInch
	}

	switch oneInch.OutputAmount().Cmp(zeroX.OutputAmount()) {
	case 1:
		return oneInch
	case -1:
		return zeroX
	}
	if zeroX.EstimatedGas().Cmp(oneInch.EstimatedGas()) > 0 {
		return oneInch
	}
	return zeroX
}

// OneInchQuoter returns raw 1inch quotes.
type OneInchQuoter interface {
	Quote(ctx context.Context, req brokers.PairRequest) (*oneinch.QuoteResponse, error)
}

// ZeroXQuoter returns raw 0x quotes.
type ZeroXQuoter interface {
	Quote(ctx context.Context, req brokers.PairRequest) (*zerox.QuoteResponse, error)
}

// Aggregator answers the companion service's best-swap query.
type Aggregator struct {
	oneInch OneInchQuoter
	zeroX   ZeroXQuoter
	metrics *Metrics
}

// NewAggregator creates an aggregator. metrics may be nil.
func NewAggregator(oneInch OneInchQuoter, zeroX ZeroXQuoter, metrics *Metrics) *Aggregator {
	return &Aggregator{oneInch: oneInch, zeroX: zeroX, metrics: metrics}
}

// BestQuote fetches both providers and returns the better quote. When outputSpecified is
// set only 0x is asked, since it is the only provider pricing exact-output trades.
func (a *Aggregator) BestQuote(ctx context.Context, req brokers.PairRequest, outputSpecified bool) (*AggregatedQuote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if outputSpecified {
		req.TradeType = models.ExactOutput
		zeroX, err := a.fetchZeroX(ctx, req)
		if err != nil {
			return nil, errors.Join(ErrNoAggregatedQuote, err)
		}
		return zeroX, nil
	}

	var (
		oneInch, zeroX       *AggregatedQuote
		oneInchErr, zeroXErr error
		g                    errgroup.Group
	)
	g.Go(func() error {
		zeroX, zeroXErr = a.fetchZeroX(ctx, req)
		return nil
	})
	g.Go(func() error {
		oneInch, oneInchErr = a.fetchOneInch(ctx, req)
		return nil
	})
	_ = g.Wait()

	best := CompareRoutes(oneInch, zeroX)
	if best == nil {
		return nil, errors.Join(ErrNoAggregatedQuote, oneInchErr, zeroXErr)
	}

	resolverLog.Info().
		Str("winner", best.Source).
		Stringer("amountOut", best.OutputAmount()).
		Bool("oneInchOk", oneInch != nil).
		Bool("zeroXOk", zeroX != nil).
		Msg("Companion quote compared")
	return best, nil
}

func (a *Aggregator) fetchZeroX(ctx context.Context, req brokers.PairRequest) (*AggregatedQuote, error) {
	start := time.Now()
	resp, err := a.zeroX.Quote(ctx, req)
	a.metrics.observeFetch(brokers.SourceZeroX, start, err)
	if err != nil {
		resolverLog.Warn().Err(err).Msg("0x quote unavailable")
		return nil, err
	}
	return &AggregatedQuote{Source: brokers.SourceZeroX, ZeroX: resp}, nil
}

func (a *Aggregator) fetchOneInch(ctx context.Context, req brokers.PairRequest) (*AggregatedQuote, error) {
	start := time.Now()
	resp, err := a.oneInch.Quote(ctx, req)
	a.metrics.observeFetch(brokers.SourceOneInch, start, err)
	if err != nil {
		resolverLog.Warn().Err(err).Msg("1inch quote unavailable")
		return nil, err
	}
	return &AggregatedQuote{Source: brokers.SourceOneInch, OneInch: resp}, nil
}
