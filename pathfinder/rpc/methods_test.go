package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/rpc"
)

type stubQuoter struct {
	quote           *router.AggregatedQuote
	err             error
	lastReq         brokers.PairRequest
	outputSpecified bool
}

func (s *stubQuoter) BestQuote(_ context.Context, req brokers.PairRequest, outputSpecified bool) (*router.AggregatedQuote, error) {
	s.lastReq = req
	s.outputSpecified = outputSpecified
	return s.quote, s.err
}

func newTestServer(t *testing.T, quoter rpc.BestQuoter) *httptest.Server {
	t.Helper()
	cfg := rpc.DefaultServerConfig()
	cfg.EnableMetrics = false
	srv := httptest.NewServer(rpc.NewHandler(cfg, rpc.NewSwapServer(quoter, nil, 1)))
	t.Cleanup(srv.Close)
	return srv
}

func validQuery() url.Values {
	q := url.Values{}
	q.Set("fromTokenAddress", "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	q.Set("toTokenAddress", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	q.Set("amount", "1000000000000000000")
	q.Set("fromAddress", "0x52bc44d5378309EE2abF1539BF71dE1b7d7bE3b5")
	q.Set("slippage", "1")
	return q
}

func get(t *testing.T, srv *httptest.Server, query url.Values) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/getSwap?" + query.Encode())
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestGetSwap_ReturnsWinnerWithSource(t *testing.T) {
	quoter := &stubQuoter{quote: &router.AggregatedQuote{Source: brokers.SourceZeroX, ZeroX: &zerox.QuoteResponse{
		BuyAmount:  brokers.NewQuantity(1795000000),
		SellAmount: brokers.NewQuantity(1000000000000000000),
	}}}
	srv := newTestServer(t, quoter)

	status, body, header := get(t, srv, validQuery())
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, header.Get("Cache-Control"), "no-store, no-cache, must-revalidate")

	var fields map[string]any
	assert.NoError(t, json.Unmarshal([]byte(body), &fields))
	assert.Equal(t, fields["source"], "0x")
	assert.Equal(t, fields["buyAmount"], "1795000000")

	assert.True(t, quoter.lastReq.FromToken.IsNative)
	assert.Equal(t, quoter.lastReq.Amount.String(), "1000000000000000000")
	assert.Equal(t, quoter.lastReq.Protocols, models.UniswapProtocols(1))
	assert.False(t, quoter.outputSpecified)
}

func TestGetSwap_PassesOutputSpecified(t *testing.T) {
	quoter := &stubQuoter{quote: &router.AggregatedQuote{Source: brokers.SourceZeroX, ZeroX: &zerox.QuoteResponse{}}}
	srv := newTestServer(t, quoter)

	q := validQuery()
	q.Set("outputSpecified", "true")
	status, _, _ := get(t, srv, q)
	assert.Equal(t, status, http.StatusOK)
	assert.True(t, quoter.outputSpecified)
}

func TestGetSwap_ValidationError(t *testing.T) {
	srv := newTestServer(t, &stubQuoter{})

	q := validQuery()
	q.Del("amount")
	q.Del("slippage")
	status, body, _ := get(t, srv, q)
	assert.Equal(t, status, http.StatusBadRequest)
	assert.Equal(t, strings.TrimSpace(body), `Validation error: "amount" is required, "slippage" is required`)
}

func TestGetSwap_NoQuoteIsServerError(t *testing.T) {
	srv := newTestServer(t, &stubQuoter{err: errors.Join(router.ErrNoAggregatedQuote, errors.New("down"))})

	status, body, _ := get(t, srv, validQuery())
	assert.Equal(t, status, http.StatusInternalServerError)
	assert.Equal(t, strings.TrimSpace(body), "Server Error")
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubQuoter{})

	for _, path := range []string{"/server/health", "/server/ready"} {
		resp, err := http.Get(srv.URL + path)
		assert.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, resp.StatusCode, http.StatusOK)
	}
}
