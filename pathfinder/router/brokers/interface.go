// Package brokers defines the interface and common types for external quote sources.
// Each aggregator (1inch, 0x) implements QuoteFetcher and normalizes its own response
// into a models.QuoteEstimate; raw provider payloads never leave the provider package.
package brokers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// Source names, also used as metric labels.
const (
	SourceOneInch = "1inch"
	SourceZeroX   = "0x"
)

// QuoteFetcher fetches a quote from one external liquidity source.
type QuoteFetcher interface {
	// FetchQuote returns the normalized quote for the request. Failures are returned as
	// *FetchError (or *ValidationError for bad input) and must be treated by callers as
	// "this source has no quote".
	FetchQuote(ctx context.Context, req PairRequest) (*models.QuoteEstimate, error)

	// GetBrokerType returns the source name (e.g. "1inch", "0x")
	GetBrokerType() string

	// Close cleans up resources used by the fetcher
	Close()
}

// PairRequest describes the trade a quote is requested for.
type PairRequest struct {
	FromToken   models.Currency
	ToToken     models.Currency
	Amount      *big.Int // base units of FromToken (ToToken for exact output)
	TradeType   models.TradeType
	FromAddress string
	// Slippage in percent, e.g. 0.5 for 0.5%. Zero is a valid tolerance, nil is not.
	Slippage *decimal.Decimal
	// Protocols optionally restricts the liquidity sources an aggregator may route through
	Protocols string
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "Validation error: " + strings.Join(e.Problems, ", ")
}

// Validate checks the request before any network call is made.
func (r PairRequest) Validate() error {
	var problems []string
	if r.FromToken == (models.Currency{}) {
		problems = append(problems, `"fromToken" is required`)
	}
	if r.ToToken == (models.Currency{}) {
		problems = append(problems, `"toToken" is required`)
	}
	if r.Amount == nil {
		problems = append(problems, `"amount" is required`)
	} else if r.Amount.Sign() <= 0 {
		problems = append(problems, `"amount" must be greater than 0`)
	}
	if r.Slippage == nil {
		problems = append(problems, `"slippage" is required`)
	} else if r.Slippage.IsNegative() {
		problems = append(problems, `"slippage" must not be negative`)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Key identifies the request inputs; two requests with the same key ask for the same quote.
func (r PairRequest) Key() string {
	amount, slippage := "<nil>", "<nil>"
	if r.Amount != nil {
		amount = r.Amount.String()
	}
	if r.Slippage != nil {
		slippage = r.Slippage.String()
	}
	return fmt.Sprintf("%d:%s:%s:%s:%s:%s", r.FromToken.ChainID, r.FromToken.CurrencyID(),
		r.ToToken.CurrencyID(), amount, r.TradeType, slippage)
}

// ErrNoQuote is wrapped by fetch errors whose response carried no usable quote.
var ErrNoQuote = errors.New("no usable quote in response")

// FetchError is returned when a source could not produce a quote.
type FetchError struct {
	Source     string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s quote failed with status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s quote failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
