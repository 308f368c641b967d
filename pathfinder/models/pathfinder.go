// Package models holds the wire types of the pathfinder HTTP service.
package models

import (
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// GetSwapQuery is the query string of GET /getSwap. All fields except OutputSpecified
// are required.
type GetSwapQuery struct {
	FromTokenAddress string // token sold, 0xEeee... for the native coin
	ToTokenAddress   string // token bought
	Amount           string // base units of the sold token, or of the bought token when OutputSpecified
	FromAddress      string // taker
	Slippage         string // percent, e.g. "0.5"
	OutputSpecified  bool
}

// GetSwapQueryFromValues reads the query from URL values.
func GetSwapQueryFromValues(values url.Values) GetSwapQuery {
	outputSpecified, _ := strconv.ParseBool(values.Get("outputSpecified"))
	return GetSwapQuery{
		FromTokenAddress: strings.TrimSpace(values.Get("fromTokenAddress")),
		ToTokenAddress:   strings.TrimSpace(values.Get("toTokenAddress")),
		Amount:           strings.TrimSpace(values.Get("amount")),
		FromAddress:      strings.TrimSpace(values.Get("fromAddress")),
		Slippage:         strings.TrimSpace(values.Get("slippage")),
		OutputSpecified:  outputSpecified,
	}
}

// Problems lists every validation failure in field order. An empty result means the
// query is valid.
func (q GetSwapQuery) Problems() []string {
	var problems []string
	checkAddress := func(name, value string) {
		switch {
		case value == "":
			problems = append(problems, fmt.Sprintf("%q is required", name))
		case !common.IsHexAddress(value):
			problems = append(problems, fmt.Sprintf("%q must be a hex address", name))
		}
	}

	checkAddress("fromTokenAddress", q.FromTokenAddress)
	checkAddress("toTokenAddress", q.ToTokenAddress)

	if q.Amount == "" {
		problems = append(problems, `"amount" is required`)
	} else if v, ok := new(big.Int).SetString(q.Amount, 10); !ok || v.Sign() <= 0 {
		problems = append(problems, `"amount" must be a positive integer`)
	}

	checkAddress("fromAddress", q.FromAddress)

	if q.Slippage == "" {
		problems = append(problems, `"slippage" is required`)
	} else if s, err := decimal.NewFromString(q.Slippage); err != nil || s.IsNegative() {
		problems = append(problems, `"slippage" must be a non-negative number`)
	}
	return problems
}

// ParsedAmount returns the amount as an integer. Call only on a valid query.
func (q GetSwapQuery) ParsedAmount() *big.Int {
	v, _ := new(big.Int).SetString(q.Amount, 10)
	return v
}

// ParsedSlippage returns the slippage percentage. Call only on a valid query.
func (q GetSwapQuery) ParsedSlippage() decimal.Decimal {
	s, _ := decimal.NewFromString(q.Slippage)
	return s
}
