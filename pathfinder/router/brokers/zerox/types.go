package zerox

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// OrderInQuote is one fill the 0x quote is composed of.
type OrderInQuote struct {
	MakerToken  string           `json:"makerToken"`
	MakerAmount brokers.Quantity `json:"makerAmount"`
	TakerToken  string           `json:"takerToken"`
	TakerAmount brokers.Quantity `json:"takerAmount"`
	Source      string           `json:"source,omitempty"`
	FillData    *OrderFillData   `json:"fillData,omitempty"`
}

// OrderFillData carries venue specific fill details. Path is the packed Uniswap V3 path
// (token, fee, token, ...) for V3 fills.
type OrderFillData struct {
	Path string `json:"path,omitempty"`
}

// uniswapV3PathHop is one packed token address followed by a 3 byte fee.
const uniswapV3PathHop = common.AddressLength + 3

// PoolFee returns the fee tier of the order's first hop. Orders that carry no Uniswap V3
// path, or a path with an unknown tier, are priced on the medium tier.
func (o OrderInQuote) PoolFee() uint32 {
	if o.FillData == nil || o.FillData.Path == "" {
		return models.FeeMedium
	}
	path, err := hexutil.Decode(o.FillData.Path)
	if err != nil || len(path) < uniswapV3PathHop+common.AddressLength {
		return models.FeeMedium
	}
	fee := new(big.Int).SetBytes(path[common.AddressLength:uniswapV3PathHop]).Uint64()
	if _, ok := models.TickSpacings[uint32(fee)]; !ok {
		return models.FeeMedium
	}
	return uint32(fee)
}

// LiquiditySource is the share of a quote routed through one venue.
type LiquiditySource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

// QuoteResponse is the body of GET /swap/v1/quote.
type QuoteResponse struct {
	ChainID              int64             `json:"chainId,omitempty"`
	Price                string            `json:"price"`
	GuaranteedPrice      string            `json:"guaranteedPrice"`
	EstimatedPriceImpact string            `json:"estimatedPriceImpact,omitempty"`
	To                   string            `json:"to"`
	Data                 string            `json:"data"`
	Value                brokers.Quantity  `json:"value"`
	Gas                  brokers.Quantity  `json:"gas"`
	EstimatedGas         brokers.Quantity  `json:"estimatedGas"`
	GasPrice             brokers.Quantity  `json:"gasPrice"`
	ProtocolFee          brokers.Quantity  `json:"protocolFee"`
	MinimumProtocolFee   brokers.Quantity  `json:"minimumProtocolFee"`
	BuyTokenAddress      string            `json:"buyTokenAddress"`
	BuyAmount            brokers.Quantity  `json:"buyAmount"`
	SellTokenAddress     string            `json:"sellTokenAddress"`
	SellAmount           brokers.Quantity  `json:"sellAmount"`
	Sources              []LiquiditySource `json:"sources,omitempty"`
	Orders               []OrderInQuote    `json:"orders"`
	AllowanceTarget      string            `json:"allowanceTarget"`
}

// Normalize converts the 0x payload into the shared quote shape.
func (r *QuoteResponse) Normalize(req brokers.PairRequest) (*models.QuoteEstimate, error) {
	if !r.BuyAmount.IsSet() || !r.SellAmount.IsSet() {
		return nil, fmt.Errorf("%w: missing buyAmount or sellAmount", brokers.ErrNoQuote)
	}
	input, err := models.FromRawAmount(req.FromToken, r.SellAmount.Value())
	if err != nil {
		return nil, fmt.Errorf("sellAmount: %w", err)
	}
	output, err := models.FromRawAmount(req.ToToken, r.BuyAmount.Value())
	if err != nil {
		return nil, fmt.Errorf("buyAmount: %w", err)
	}

	var data []byte
	if r.Data != "" && r.Data != "0x" {
		data, err = hexutil.Decode(r.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
	}

	gas := r.EstimatedGas.Value()
	if !r.EstimatedGas.IsSet() {
		gas = r.Gas.Value()
	}

	return &models.QuoteEstimate{
		Source:          brokers.SourceZeroX,
		TradeType:       req.TradeType,
		InputAmount:     input,
		OutputAmount:    output,
		EstimatedGas:    gas,
		To:              r.To,
		Data:            data,
		Value:           r.Value.Value(),
		AllowanceTarget: r.AllowanceTarget,
		Route:           ComputeRoutes(req.FromToken, req.ToToken, r.Orders),
	}, nil
}

// ComputeRoutes maps the quote orders to pools. It returns nil when the response carried
// no orders field, an empty route when it carried an empty one, and skips orders that
// would move a zero amount.
func ComputeRoutes(currencyIn, currencyOut models.Currency, orders []OrderInQuote) []models.Pool {
	if orders == nil {
		return nil
	}
	pools := make([]models.Pool, 0, len(orders))
	for _, order := range orders {
		if order.TakerAmount.Value().Sign() == 0 || order.MakerAmount.Value().Sign() == 0 {
			continue
		}
		pools = append(pools, models.Pool{
			Token0: routeToken(currencyIn, order.TakerToken),
			Token1: routeToken(currencyOut, order.MakerToken),
			Fee:    order.PoolFee(),
			Name:   order.Source,
		})
	}
	return pools
}

func routeToken(known models.Currency, address string) models.Currency {
	if address == "" || strings.EqualFold(address, known.QuoteAddress()) {
		return known
	}
	return models.Currency{ChainID: known.ChainID, Address: common.HexToAddress(address)}
}
