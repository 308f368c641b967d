package models

import "fmt"

// TradeType distinguishes exact-input from exact-output trades.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "EXACT_OUTPUT"
	}
	return "EXACT_INPUT"
}

// Fee tiers in hundredths of a bip.
const (
	FeeLowest uint32 = 100
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

// TickSpacings maps a fee tier to the pool tick spacing.
var TickSpacings = map[uint32]int32{
	FeeLowest: 1,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// Pool is one hop of a trade route.
type Pool struct {
	Token0 Currency `json:"token0"`
	Token1 Currency `json:"token1"`
	Fee    uint32   `json:"fee"`
	Name   string   `json:"name,omitempty"`
}

// Trade is an intended exchange. Trades are rebuilt on every quote refresh and never mutated.
type Trade struct {
	Type           TradeType
	InputAmount    CurrencyAmount
	OutputAmount   CurrencyAmount
	ExecutionPrice Price
	Route          []Pool
}

// NewTrade builds a trade and derives its execution price from the amounts.
func NewTrade(tradeType TradeType, input, output CurrencyAmount, route []Pool) (*Trade, error) {
	if input.IsZero() {
		return nil, fmt.Errorf("trade input: %w", ErrInvalidAmount)
	}
	price, err := NewPriceFromAmounts(input, output)
	if err != nil {
		return nil, fmt.Errorf("trade price: %w", err)
	}
	return &Trade{
		Type:           tradeType,
		InputAmount:    input,
		OutputAmount:   output,
		ExecutionPrice: price,
		Route:          append([]Pool(nil), route...),
	}, nil
}

// FeeTier returns the fee of the first hop, 0 when the route is empty.
func (t *Trade) FeeTier() uint32 {
	if t == nil || len(t.Route) == 0 {
		return 0
	}
	return t.Route[0].Fee
}

// MidPrice is the reference price used to derive limit bounds.
func (t *Trade) MidPrice() Price {
	return t.ExecutionPrice
}
