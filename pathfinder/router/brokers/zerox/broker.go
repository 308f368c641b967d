package zerox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	quotequery "github.com/Cogwheel-Validator/spectra-swap/pathfinder/quote_query"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "zerox-broker").Logger()
}

// DefaultAPIURL is the public 0x API host for mainnet.
const DefaultAPIURL = "https://api.0x.org"

// QuotePath is the 0x v1 swap quote endpoint.
const QuotePath = "/swap/v1/quote"

// QuoteBroker implements brokers.QuoteFetcher against the 0x swap API.
type QuoteBroker struct {
	client *quotequery.QuoteQueryClient
}

// NewQuoteBroker creates a 0x broker around an existing query client.
func NewQuoteBroker(client *quotequery.QuoteQueryClient) *QuoteBroker {
	return &QuoteBroker{client: client}
}

// NewQuoteBrokerWithFailover creates a 0x broker querying apiURLs in order. apiKey is sent
// as the 0x-api-key header when set.
func NewQuoteBrokerWithFailover(apiURLs []string, apiKey string) (*QuoteBroker, error) {
	if len(apiURLs) == 0 {
		apiURLs = []string{DefaultAPIURL}
	}
	client, err := quotequery.NewQuoteQueryClientWithFailover(apiURLs[0], apiURLs[1:], quotequery.DefaultFailoverConfig())
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		client.SetHeader("0x-api-key", apiKey)
	}
	return NewQuoteBroker(client), nil
}

// QueryParams builds the 0x query string. Exact output requests price a buy amount.
func QueryParams(req brokers.PairRequest) url.Values {
	params := url.Values{}
	params.Set("sellToken", req.FromToken.QuoteAddress())
	params.Set("buyToken", req.ToToken.QuoteAddress())
	if req.TradeType == models.ExactOutput {
		params.Set("buyAmount", req.Amount.String())
	} else {
		params.Set("sellAmount", req.Amount.String())
	}
	if req.Slippage != nil && !req.Slippage.IsZero() {
		params.Set("slippagePercentage", brokers.PercentToFraction(*req.Slippage).String())
	}
	if req.FromAddress != "" {
		params.Set("takerAddress", req.FromAddress)
	}
	return params
}

// Quote performs the raw 0x request.
func (b *QuoteBroker) Quote(ctx context.Context, req brokers.PairRequest) (*QuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := b.client.Get(ctx, QuotePath, QueryParams(req))
	if err != nil {
		fetchErr := &brokers.FetchError{Source: brokers.SourceZeroX, Err: err}
		var httpErr *quotequery.HTTPError
		if errors.As(err, &httpErr) {
			fetchErr.StatusCode = httpErr.StatusCode
		}
		return nil, fetchErr
	}

	var response QuoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &brokers.FetchError{Source: brokers.SourceZeroX, Err: fmt.Errorf("failed to parse quote response: %w", err)}
	}
	return &response, nil
}

// FetchQuote implements brokers.QuoteFetcher
func (b *QuoteBroker) FetchQuote(ctx context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
	log.Debug().
		Str("sellToken", req.FromToken.QuoteAddress()).
		Str("buyToken", req.ToToken.QuoteAddress()).
		Stringer("amount", req.Amount).
		Str("tradeType", req.TradeType.String()).
		Msg("Querying 0x for quote")

	response, err := b.Quote(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("0x quote failed")
		return nil, err
	}

	estimate, err := response.Normalize(req)
	if err != nil {
		return nil, &brokers.FetchError{Source: brokers.SourceZeroX, Err: err}
	}

	log.Debug().
		Stringer("buyAmount", estimate.Output()).
		Stringer("estimatedGas", estimate.Gas()).
		Int("orders", len(response.Orders)).
		Msg("0x quote successful")
	return estimate, nil
}

// GetBrokerType returns the broker type identifier
func (b *QuoteBroker) GetBrokerType() string {
	return brokers.SourceZeroX
}

// Close cleans up resources used by the broker client
func (b *QuoteBroker) Close() {
	if b.client != nil {
		b.client.Close()
	}
}
