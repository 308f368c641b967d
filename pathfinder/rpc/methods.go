package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	commonmodels "github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// TokenLookup resolves token metadata from the registry.
type TokenLookup interface {
	Currency(chainID uint64, address common.Address) (commonmodels.Currency, bool)
	Native(chainID uint64) (commonmodels.Currency, bool)
}

// BestQuoter picks the best provider quote for a request.
type BestQuoter interface {
	BestQuote(ctx context.Context, req brokers.PairRequest, outputSpecified bool) (*router.AggregatedQuote, error)
}

// SwapServer serves the companion quote endpoint.
type SwapServer struct {
	quoter  BestQuoter
	tokens  TokenLookup
	chainID uint64
}

// NewSwapServer creates a SwapServer quoting on chainID. tokens may be nil, in which case
// tokens are sent to providers by address only.
func NewSwapServer(quoter BestQuoter, tokens TokenLookup, chainID uint64) *SwapServer {
	return &SwapServer{quoter: quoter, tokens: tokens, chainID: chainID}
}

// GetSwap handles GET /getSwap.
//
// Returns:
// - 400 with "Validation error: ..." when any query field is missing or malformed
// - 500 "Server Error" when no provider produced a quote
// - 200 with the winning provider payload plus its "source"
func (s *SwapServer) GetSwap(w http.ResponseWriter, r *http.Request) {
	query := models.GetSwapQueryFromValues(r.URL.Query())
	if problems := query.Problems(); len(problems) > 0 {
		Logger.Debug().Strs("problems", problems).Msg("Rejected getSwap query")
		http.Error(w, "Validation error: "+strings.Join(problems, ", "), http.StatusBadRequest)
		return
	}

	slippage := query.ParsedSlippage()
	req := brokers.PairRequest{
		FromToken:   s.currency(query.FromTokenAddress),
		ToToken:     s.currency(query.ToTokenAddress),
		Amount:      query.ParsedAmount(),
		FromAddress: query.FromAddress,
		Slippage:    &slippage,
		Protocols:   commonmodels.UniswapProtocols(s.chainID),
	}

	best, err := s.quoter.BestQuote(r.Context(), req, query.OutputSpecified)
	if err != nil {
		var validationErr *brokers.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		Logger.Error().Err(err).Str("request", req.Key()).Msg("getSwap failed")
		http.Error(w, "Server Error", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(best)
	if err != nil {
		Logger.Error().Err(err).Msg("Failed to encode getSwap response")
		http.Error(w, "Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *SwapServer) currency(address string) commonmodels.Currency {
	parsed, native, err := commonmodels.ParseCurrencyAddress(address)
	if err != nil {
		return commonmodels.Currency{}
	}
	if native {
		if s.tokens != nil {
			if c, ok := s.tokens.Native(s.chainID); ok {
				return c
			}
		}
		return commonmodels.NewNative(s.chainID, 18, "ETH", "Ether")
	}
	if s.tokens != nil {
		if c, ok := s.tokens.Currency(s.chainID, parsed); ok {
			return c
		}
	}
	return commonmodels.NewToken(s.chainID, parsed, 0, "", "")
}
