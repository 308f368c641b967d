package oneinch

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
	log = zerolog.New(out).With().Timestamp().Str("component", "oneinch-broker").Logger()
}

// DefaultAPIURL is the public 1inch API host.
const DefaultAPIURL = "https://api.1inch.io"

// ErrExactOutputUnsupported is returned for exact output requests; the v4 quote endpoint
// only prices a fixed input amount.
var ErrExactOutputUnsupported = errors.New("1inch quotes only support exact input")

// QuoteBroker implements brokers.QuoteFetcher against the 1inch v4 quote API.
type QuoteBroker struct {
	client *quotequery.QuoteQueryClient
}

// NewQuoteBroker creates a 1inch broker around an existing query client.
func NewQuoteBroker(client *quotequery.QuoteQueryClient) *QuoteBroker {
	return &QuoteBroker{client: client}
}

// NewQuoteBrokerWithFailover creates a 1inch broker querying apiURLs in order.
func NewQuoteBrokerWithFailover(apiURLs []string) (*QuoteBroker, error) {
	if len(apiURLs) == 0 {
		apiURLs = []string{DefaultAPIURL}
	}
	client, err := quotequery.NewQuoteQueryClientWithFailover(apiURLs[0], apiURLs[1:], quotequery.DefaultFailoverConfig())
	if err != nil {
		return nil, err
	}
	return NewQuoteBroker(client), nil
}

// QueryParams builds the 1inch query string for a request.
func QueryParams(req brokers.PairRequest) url.Values {
	params := url.Values{}
	params.Set("fromTokenAddress", req.FromToken.QuoteAddress())
	params.Set("toTokenAddress", req.ToToken.QuoteAddress())
	params.Set("amount", req.Amount.String())
	if req.FromAddress != "" {
		params.Set("fromAddress", req.FromAddress)
	}
	if req.Slippage != nil && !req.Slippage.IsZero() {
		params.Set("slippage", req.Slippage.String())
	}
	if req.Protocols != "" {
		params.Set("protocols", req.Protocols)
	}
	return params
}

// Quote performs the raw 1inch request. The companion service uses it to relay the
// provider payload unchanged.
func (b *QuoteBroker) Quote(ctx context.Context, req brokers.PairRequest) (*QuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.TradeType == models.ExactOutput {
		return nil, &brokers.FetchError{Source: brokers.SourceOneInch, Err: ErrExactOutputUnsupported}
	}

	path := fmt.Sprintf("/v4.0/%d/quote", req.FromToken.ChainID)
	body, err := b.client.Get(ctx, path, QueryParams(req))
	if err != nil {
		fetchErr := &brokers.FetchError{Source: brokers.SourceOneInch, Err: err}
		var httpErr *quotequery.HTTPError
		if errors.As(err, &httpErr) {
			fetchErr.StatusCode = httpErr.StatusCode
		}
		return nil, fetchErr
	}

	var response QuoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &brokers.FetchError{Source: brokers.SourceOneInch, Err: fmt.Errorf("failed to parse quote response: %w", err)}
	}
	return &response, nil
}

// FetchQuote implements brokers.QuoteFetcher
func (b *QuoteBroker) FetchQuote(ctx context.Context, req brokers.PairRequest) (*models.QuoteEstimate, error) {
	log.Debug().
		Str("from", req.FromToken.QuoteAddress()).
		Str("to", req.ToToken.QuoteAddress()).
		Stringer("amount", req.Amount).
		Msg("Querying 1inch for quote")

	response, err := b.Quote(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("1inch quote failed")
		return nil, err
	}

	estimate, err := response.Normalize(req)
	if err != nil {
		return nil, &brokers.FetchError{Source: brokers.SourceOneInch, Err: err}
	}

	log.Debug().
		Stringer("amountOut", estimate.Output()).
		Stringer("estimatedGas", estimate.Gas()).
		Msg("1inch quote successful")
	return estimate, nil
}

// GetBrokerType returns the broker type identifier
func (b *QuoteBroker) GetBrokerType() string {
	return brokers.SourceOneInch
}

// Close cleans up resources used by the broker client
func (b *QuoteBroker) Close() {
	if b.client != nil {
		b.client.Close()
	}
}
