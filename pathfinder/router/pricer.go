package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// ErrNoUSDPrice is returned when no source could quote an amount into the stablecoin.
var ErrNoUSDPrice = errors.New("no stablecoin quote for amount")

// StablecoinPricer values amounts by quoting them into a dollar stablecoin through the
// same sources used for trading.
type StablecoinPricer struct {
	fetchers []brokers.QuoteFetcher
	stable   models.Currency
	metrics  *Metrics
}

// NewStablecoinPricer creates a pricer quoting into stable. metrics may be nil.
func NewStablecoinPricer(fetchers []brokers.QuoteFetcher, stable models.Currency, metrics *Metrics) *StablecoinPricer {
	return &StablecoinPricer{fetchers: fetchers, stable: stable, metrics: metrics}
}

// USDValue quotes amount into the stablecoin and returns the best output in whole units.
// Amounts already in the stablecoin are returned as is.
func (p *StablecoinPricer) USDValue(ctx context.Context, amount models.CurrencyAmount) (decimal.Decimal, error) {
	if amount.Currency.Equals(p.stable) {
		return amount.ToDecimal(), nil
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	slippage := decimal.Zero
	req := brokers.PairRequest{
		FromToken: amount.Currency,
		ToToken:   p.stable,
		Amount:    amount.Raw(),
		TradeType: models.ExactInput,
		Slippage:  &slippage,
	}
	if err := req.Validate(); err != nil {
		return decimal.Zero, err
	}

	best := PickBest(FetchAll(ctx, p.fetchers, req, p.metrics, nil)...)
	if best == nil || best.HasNoRoute() {
		return decimal.Zero, fmt.Errorf("%w: %s %s", ErrNoUSDPrice, amount.ToExact(), amount.Currency.Symbol)
	}
	return best.OutputAmount.ToDecimal(), nil
}
