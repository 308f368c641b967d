package router_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

func TestStablecoinPricer_QuotesIntoStablecoin(t *testing.T) {
	var seen brokers.PairRequest
	oneInch := &fakeFetcher{source: brokers.SourceOneInch, fetch: func(_ context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
		seen = req
		return quote(brokers.SourceOneInch, 1_800_000_000, 150_000), nil
	}}
	zeroX := fixed(brokers.SourceZeroX, 1_805_000_000, 150_000)
	p := router.NewStablecoinPricer([]brokers.QuoteFetcher{oneInch, zeroX}, usdc, nil)

	usd, err := p.USDValue(context.Background(), models.MustRawAmount(weth, 1_000_000_000_000_000_000))
	assert.NoError(t, err)
	assert.Equal(t, usd.String(), "1805")
	assert.True(t, seen.ToToken.Equals(usdc))
	assert.Equal(t, seen.TradeType, models.ExactInput)
	assert.NotNil(t, seen.Slippage)
}

func TestStablecoinPricer_StablecoinNeedsNoQuote(t *testing.T) {
	f := fixed(brokers.SourceOneInch, 1, 1)
	p := router.NewStablecoinPricer([]brokers.QuoteFetcher{f}, usdc, nil)

	usd, err := p.USDValue(context.Background(), models.MustRawAmount(usdc, 12_500_000))
	assert.NoError(t, err)
	assert.Equal(t, usd.String(), "12.5")
	assert.Equal(t, f.calls.Load(), int32(0))
}

func TestStablecoinPricer_NoSourceAnswers(t *testing.T) {
	p := router.NewStablecoinPricer([]brokers.QuoteFetcher{failing(brokers.SourceOneInch), failing(brokers.SourceZeroX)}, usdc, nil)

	_, err := p.USDValue(context.Background(), models.MustRawAmount(weth, 1_000))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, router.ErrNoUSDPrice))
}

func TestResolver_SavingsFromStablecoinPricer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := router.NewMetrics(reg)

	// usdc -> weth, the savings output is weth and has to be quoted back into usdc.
	toWETH := func(source string, out int64) *fakeFetcher {
		return &fakeFetcher{source: source, fetch: func(_ context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
			if req.ToToken.Equals(usdc) {
				return quote(source, 3_000_000_000, 150_000), nil
			}
			return &models.QuoteEstimate{
				Source:       source,
				InputAmount:  models.MustRawAmount(usdc, 3_000_000_000),
				OutputAmount: models.MustRawAmount(weth, out),
				Route:        []models.Pool{{Token0: usdc, Token1: weth, Fee: models.FeeMedium}},
			}, nil
		}}
	}
	fetchers := []brokers.QuoteFetcher{
		toWETH(brokers.SourceOneInch, 1_000_000_000_000_000_000),
		toWETH(brokers.SourceZeroX, 990_000_000_000_000_000),
	}
	pricer := router.NewStablecoinPricer(fetchers, usdc, metrics)
	r := router.NewResolver(fetchers, pricer, router.WithDebounce(5*time.Millisecond), router.WithMetrics(metrics))
	defer r.Close()
	sub := r.Subscribe()

	req := oneEthRequest(1)
	req.FromToken, req.ToToken = usdc, weth
	r.Update(context.Background(), req)

	res := waitFor(t, sub, settled)
	assert.Equal(t, res.State, router.StateValid)
	assert.Equal(t, res.Trade.Source, brokers.SourceOneInch)
	assert.NotNil(t, res.Savings)
	assert.Equal(t, res.Savings.String(), "3000")

	families, err := reg.Gather()
	assert.NoError(t, err)
	var fetches float64
	for _, mf := range families {
		if mf.GetName() != "spectra_swap_quotes_fetch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			fetches += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, fetches, float64(4))
}
