package zerox_test

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
	quotequery "github.com/Cogwheel-Validator/spectra-swap/pathfinder/quote_query"
)

var (
	weth = models.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
	usdc = models.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
)

const quoteBody = `{
  "chainId": 1,
  "price": "1795",
  "guaranteedPrice": "1786.025",
  "to": "0xdef1c0ded9bec7f1a1670819833240f027b25eff",
  "data": "0xd9627aa4",
  "value": "0",
  "gas": "180000",
  "estimatedGas": "160000",
  "gasPrice": "30000000000",
  "buyTokenAddress": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
  "buyAmount": "1795000000",
  "sellTokenAddress": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
  "sellAmount": "1000000000000000000",
  "sources": [{"name":"Uniswap_V3","proportion":"1"}],
  "orders": [
    {"makerToken":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","makerAmount":"1795000000","takerToken":"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2","takerAmount":"1000000000000000000","source":"Uniswap_V3"},
    {"makerToken":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","makerAmount":"0","takerToken":"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2","takerAmount":"0","source":"Curve"}
  ],
  "allowanceTarget": "0xdef1c0ded9bec7f1a1670819833240f027b25eff"
}`

func newBroker(t *testing.T, handler http.HandlerFunc) *zerox.QuoteBroker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := quotequery.NewQuoteQueryClient(srv.URL)
	assert.NoError(t, err)
	return zerox.NewQuoteBroker(client)
}

func wethToUSDC() brokers.PairRequest {
	slippage := decimal.RequireFromString("0.5")
	return brokers.PairRequest{
		FromToken: weth,
		ToToken:   usdc,
		Amount:    new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		Slippage:  &slippage,
	}
}

func TestFetchQuote_Normalizes(t *testing.T) {
	broker := newBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, zerox.QuotePath)
		q := r.URL.Query()
		assert.Equal(t, q.Get("sellToken"), weth.Address.Hex())
		assert.Equal(t, q.Get("buyToken"), usdc.Address.Hex())
		assert.Equal(t, q.Get("sellAmount"), "1000000000000000000")
		assert.Equal(t, q.Get("slippagePercentage"), "0.005")
		_, _ = w.Write([]byte(quoteBody))
	})

	estimate, err := broker.FetchQuote(context.Background(), wethToUSDC())
	assert.NoError(t, err)
	assert.Equal(t, estimate.Source, brokers.SourceZeroX)
	assert.Equal(t, estimate.Output().String(), "1795000000")
	assert.Equal(t, estimate.Gas().String(), "160000")
	assert.Equal(t, len(estimate.Data), 4)
	assert.Equal(t, len(estimate.Route), 1)
	assert.True(t, estimate.Route[0].Token0.Equals(weth))
	assert.True(t, estimate.Route[0].Token1.Equals(usdc))
	assert.Equal(t, estimate.Route[0].Fee, models.FeeMedium)
}

func TestFetchQuote_ExactOutputSendsBuyAmount(t *testing.T) {
	broker := newBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Query().Get("buyAmount"), "1000000000000000000")
		assert.Equal(t, r.URL.Query().Get("sellAmount"), "")
		_, _ = w.Write([]byte(quoteBody))
	})
	req := wethToUSDC()
	req.TradeType = models.ExactOutput
	_, err := broker.FetchQuote(context.Background(), req)
	assert.NoError(t, err)
}

func TestFetchQuote_ServerErrorIsFetchError(t *testing.T) {
	broker := newBroker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	_, err := broker.FetchQuote(context.Background(), wethToUSDC())
	var fetchErr *brokers.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetchErr.StatusCode, http.StatusServiceUnavailable)
}

func TestComputeRoutes(t *testing.T) {
	assert.Nil(t, zerox.ComputeRoutes(weth, usdc, nil))

	empty := zerox.ComputeRoutes(weth, usdc, []zerox.OrderInQuote{})
	assert.NotNil(t, empty)
	assert.Equal(t, len(empty), 0)

	zero := zerox.ComputeRoutes(weth, usdc, []zerox.OrderInQuote{{
		MakerAmount: brokers.NewQuantity(0),
		TakerAmount: brokers.NewQuantity(5),
	}})
	assert.Equal(t, len(zero), 0)
}

func TestOrderInQuote_PoolFee(t *testing.T) {
	v3Path := func(fee string) *zerox.OrderFillData {
		return &zerox.OrderFillData{Path: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" + fee + "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"}
	}
	cases := []struct {
		name string
		fill *zerox.OrderFillData
		want uint32
	}{
		{"no fill data", nil, models.FeeMedium},
		{"empty path", &zerox.OrderFillData{}, models.FeeMedium},
		{"low tier path", v3Path("0001f4"), models.FeeLow},
		{"high tier path", v3Path("002710"), models.FeeHigh},
		{"unknown tier", v3Path("0003e8"), models.FeeMedium},
		{"truncated path", &zerox.OrderFillData{Path: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"}, models.FeeMedium},
		{"not hex", &zerox.OrderFillData{Path: "uniswap"}, models.FeeMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, zerox.OrderInQuote{FillData: tc.fill}.PoolFee(), tc.want)
		})
	}
}
