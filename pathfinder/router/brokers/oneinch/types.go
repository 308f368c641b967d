package oneinch

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// TokenInRoute is the token description 1inch attaches to a quote.
type TokenInRoute struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// PoolInRoute is one leg of a 1inch route.
type PoolInRoute struct {
	Name             string  `json:"name"`
	Part             float64 `json:"part"`
	FromTokenAddress string  `json:"fromTokenAddress"`
	ToTokenAddress   string  `json:"toTokenAddress"`
}

// QuoteResponse is the body of GET /v4.0/{chainId}/quote.
type QuoteResponse struct {
	FromToken       TokenInRoute      `json:"fromToken"`
	ToToken         TokenInRoute      `json:"toToken"`
	FromTokenAmount brokers.Quantity  `json:"fromTokenAmount"`
	ToTokenAmount   brokers.Quantity  `json:"toTokenAmount"`
	Protocols       [][][]PoolInRoute `json:"protocols"`
	EstimatedGas    brokers.Quantity  `json:"estimatedGas"`
}

// Normalize converts the 1inch payload into the shared quote shape.
func (r *QuoteResponse) Normalize(req brokers.PairRequest) (*models.QuoteEstimate, error) {
	if !r.ToTokenAmount.IsSet() {
		return nil, fmt.Errorf("%w: missing toTokenAmount", brokers.ErrNoQuote)
	}

	inputRaw := r.FromTokenAmount.Value()
	if !r.FromTokenAmount.IsSet() {
		inputRaw = req.Amount
	}
	input, err := models.FromRawAmount(req.FromToken, inputRaw)
	if err != nil {
		return nil, fmt.Errorf("fromTokenAmount: %w", err)
	}
	output, err := models.FromRawAmount(req.ToToken, r.ToTokenAmount.Value())
	if err != nil {
		return nil, fmt.Errorf("toTokenAmount: %w", err)
	}

	return &models.QuoteEstimate{
		Source:       brokers.SourceOneInch,
		TradeType:    models.ExactInput,
		InputAmount:  input,
		OutputAmount: output,
		EstimatedGas: r.EstimatedGas.Value(),
		Route:        r.route(req.FromToken.ChainID),
	}, nil
}

// route flattens the routes/hops/parts nesting into a list of pools. A response without a
// protocols field yields nil (unknown route), an empty one yields an empty route. 1inch
// reports no fee tiers, so every pool is priced on the medium tier.
func (r *QuoteResponse) route(chainID uint64) []models.Pool {
	if r.Protocols == nil {
		return nil
	}
	pools := make([]models.Pool, 0)
	for _, route := range r.Protocols {
		for _, hop := range route {
			for _, part := range hop {
				pools = append(pools, models.Pool{
					Token0: models.Currency{ChainID: chainID, Address: common.HexToAddress(part.FromTokenAddress)},
					Token1: models.Currency{ChainID: chainID, Address: common.HexToAddress(part.ToTokenAddress)},
					Fee:    models.FeeMedium,
					Name:   part.Name,
				})
			}
		}
	}
	return pools
}
