package router_test

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

type fakeFetcher struct {
	source string
	calls  atomic.Int32
	fetch  func(ctx context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error)
}

func (f *fakeFetcher) FetchQuote(ctx context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
	f.calls.Add(1)
	return f.fetch(ctx, req)
}

func (f *fakeFetcher) GetBrokerType() string { return f.source }

func (f *fakeFetcher) Close() {}

func fixed(source string, out, gas int64) *fakeFetcher {
	return &fakeFetcher{source: source, fetch: func(context.Context, brokers.PairRequest) (*models.QuoteEstimate, error) {
		return quote(source, out, gas), nil
	}}
}

func failing(source string) *fakeFetcher {
	return &fakeFetcher{source: source, fetch: func(context.Context, brokers.PairRequest) (*models.QuoteEstimate, error) {
		return nil, &brokers.FetchError{Source: source, Err: errors.New("connection refused")}
	}}
}

type flatPricer struct{}

func (flatPricer) USDValue(_ context.Context, amount models.CurrencyAmount) (decimal.Decimal, error) {
	return amount.ToDecimal(), nil
}

func oneEthRequest(amount int64) brokers.PairRequest {
	slippage := decimal.RequireFromString("0.5")
	return brokers.PairRequest{
		FromToken: weth,
		ToToken:   usdc,
		Amount:    new(big.Int).Mul(big.NewInt(amount), big.NewInt(1_000_000_000_000_000_000)),
		Slippage:  &slippage,
	}
}

func waitFor(t *testing.T, sub <-chan router.Result, done func(router.Result) bool) router.Result {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case res, ok := <-sub:
			if !ok {
				t.Fatal("subscription closed")
			}
			if done(res) {
				return res
			}
		case <-timeout:
			t.Fatal("timed out waiting for result")
		}
	}
}

func settled(res router.Result) bool {
	return res.State != router.StateLoading && res.State != router.StateSyncing
}

func TestResolver_PicksHigherOutput(t *testing.T) {
	oneInch := fixed(brokers.SourceOneInch, 1_800_000_000, 150_000)
	zeroX := fixed(brokers.SourceZeroX, 1_795_000_000, 150_000)
	r := router.NewResolver([]brokers.QuoteFetcher{oneInch, zeroX}, flatPricer{}, router.WithDebounce(20*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))
	assert.Equal(t, r.Snapshot().State, router.StateLoading)

	res := waitFor(t, sub, settled)
	assert.Equal(t, res.State, router.StateValid)
	assert.Equal(t, res.Trade.Source, brokers.SourceOneInch)
	assert.Equal(t, res.Trade.Output().String(), "1800000000")
	assert.NotNil(t, res.Savings)
	assert.Equal(t, res.Savings.String(), "1800")
}

func TestResolver_FailedSourceIsExcluded(t *testing.T) {
	r := router.NewResolver([]brokers.QuoteFetcher{
		failing(brokers.SourceOneInch),
		fixed(brokers.SourceZeroX, 1_795_000_000, 150_000),
	}, nil, router.WithDebounce(20*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))
	assert.Equal(t, r.Snapshot().State, router.StateLoading)
	res := waitFor(t, sub, settled)
	assert.Equal(t, res.State, router.StateValid)
	assert.Equal(t, res.Trade.Source, brokers.SourceZeroX)
	assert.Equal(t, res.Trade.Output().String(), "1795000000")
	assert.True(t, res.Savings == nil)
}

func TestResolver_AllSourcesFail(t *testing.T) {
	r := router.NewResolver([]brokers.QuoteFetcher{
		failing(brokers.SourceOneInch),
		failing(brokers.SourceZeroX),
	}, nil, router.WithDebounce(5*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))

	res := waitFor(t, sub, settled)
	assert.Equal(t, res.State, router.StateInvalid)
	assert.True(t, res.Trade == nil)
}

func TestResolver_EmptyRouteIsNoRouteFound(t *testing.T) {
	empty := &fakeFetcher{source: brokers.SourceZeroX, fetch: func(context.Context, brokers.PairRequest) (*models.QuoteEstimate, error) {
		q := quote(brokers.SourceZeroX, 1_000, 1)
		q.Route = []models.Pool{}
		return q, nil
	}}
	r := router.NewResolver([]brokers.QuoteFetcher{empty}, nil, router.WithDebounce(5*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))

	assert.Equal(t, waitFor(t, sub, settled).State, router.StateNoRouteFound)
}

func TestResolver_DebounceCoalescesUpdates(t *testing.T) {
	f := fixed(brokers.SourceZeroX, 1_000, 1)
	r := router.NewResolver([]brokers.QuoteFetcher{f}, nil, router.WithDebounce(50*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	for i := int64(1); i <= 5; i++ {
		r.Update(context.Background(), oneEthRequest(i))
	}

	res := waitFor(t, sub, settled)
	assert.Equal(t, res.Generation, uint64(5))
	assert.Equal(t, f.calls.Load(), int32(1))
}

func TestResolver_StaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	slowFirst := &fakeFetcher{source: brokers.SourceZeroX}
	slowFirst.fetch = func(ctx context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
		if req.Amount.Cmp(oneEthRequest(1).Amount) == 0 {
			started <- struct{}{}
			<-release
			return quote(brokers.SourceZeroX, 1_111, 1), nil
		}
		return quote(brokers.SourceZeroX, 2_222, 1), nil
	}
	r := router.NewResolver([]brokers.QuoteFetcher{slowFirst}, nil, router.WithDebounce(5*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))
	<-started
	r.Update(context.Background(), oneEthRequest(2))

	res := waitFor(t, sub, settled)
	assert.Equal(t, res.Generation, uint64(2))
	assert.Equal(t, res.Trade.Output().String(), "2222")

	close(release)
	time.Sleep(20 * time.Millisecond)

	snap := r.Snapshot()
	assert.Equal(t, snap.Generation, uint64(2))
	assert.Equal(t, snap.Trade.Output().String(), "2222")
}

func TestResolver_SyncingKeepsPreviousTrade(t *testing.T) {
	f := fixed(brokers.SourceZeroX, 1_000, 1)
	r := router.NewResolver([]brokers.QuoteFetcher{f}, nil, router.WithDebounce(5*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.Update(context.Background(), oneEthRequest(1))
	waitFor(t, sub, settled)

	r.Update(context.Background(), oneEthRequest(2))
	snap := r.Snapshot()
	assert.Equal(t, snap.State, router.StateSyncing)
	assert.NotNil(t, snap.Trade)

	assert.Equal(t, waitFor(t, sub, settled).Generation, uint64(2))
}

func TestResolver_HiddenDoesNotFetch(t *testing.T) {
	f := fixed(brokers.SourceZeroX, 1_000, 1)
	r := router.NewResolver([]brokers.QuoteFetcher{f}, nil, router.WithDebounce(5*time.Millisecond))
	defer r.Close()
	sub := r.Subscribe()

	r.SetVisible(false)
	r.Update(context.Background(), oneEthRequest(1))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, f.calls.Load(), int32(0))

	r.SetVisible(true)
	res := waitFor(t, sub, settled)
	assert.Equal(t, res.State, router.StateValid)
	assert.Equal(t, f.calls.Load(), int32(1))
}
