package models

import "math/big"

// QuoteEstimate is a quote from one external source, normalized to a common shape.
// Route is nil when the source gave no route information and empty when the source
// explicitly found no path.
type QuoteEstimate struct {
	Source          string         `json:"source"`
	TradeType       TradeType      `json:"trade_type"`
	InputAmount     CurrencyAmount `json:"-"`
	OutputAmount    CurrencyAmount `json:"-"`
	EstimatedGas    *big.Int       `json:"estimated_gas"`
	To              string         `json:"to,omitempty"`
	Data            []byte         `json:"data,omitempty"`
	Value           *big.Int       `json:"value,omitempty"`
	AllowanceTarget string         `json:"allowance_target,omitempty"`
	Route           []Pool         `json:"route"`
}

// Output returns the raw output amount.
func (q *QuoteEstimate) Output() *big.Int {
	return q.OutputAmount.Raw()
}

// Gas returns the estimated gas, zero when unknown.
func (q *QuoteEstimate) Gas() *big.Int {
	if q.EstimatedGas == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(q.EstimatedGas)
}

// HasNoRoute reports whether the source explicitly returned an empty route.
func (q *QuoteEstimate) HasNoRoute() bool {
	return q.Route != nil && len(q.Route) == 0
}

// Trade converts the quote into a Trade. A quote without route information trades through
// a single medium tier pool between its input and output currencies.
func (q *QuoteEstimate) Trade() (*Trade, error) {
	route := q.Route
	if route == nil {
		route = []Pool{{Token0: q.InputAmount.Currency, Token1: q.OutputAmount.Currency, Fee: FeeMedium}}
	}
	return NewTrade(q.TradeType, q.InputAmount, q.OutputAmount, route)
}
