// Package models holds the value types shared by the pathfinder and the solver:
// currencies, amounts, prices, trades, normalized quotes and ready-to-send calls.
package models

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrSameAddress     = errors.New("addresses are identical")
	ErrChainMismatch   = errors.New("currencies are on different chains")
	ErrNoWrappedNative = errors.New("no wrapped native currency for chain")
)

// NativeCurrencyID is the id used for the native coin when recording transactions.
const NativeCurrencyID = "ETH"

// Currency identifies a fungible asset, either the native coin of a chain or an ERC-20 token.
type Currency struct {
	ChainID  uint64         `json:"chain_id"`
	Address  common.Address `json:"address"` // zero for the native coin
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	IsNative bool           `json:"is_native"`
}

// NewToken creates an ERC-20 currency.
func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// NewNative creates the native coin of a chain.
func NewNative(chainID uint64, decimals uint8, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
		IsNative: true,
	}
}

// IsToken reports whether the currency is an ERC-20 token.
func (c Currency) IsToken() bool {
	return !c.IsNative
}

// Equals compares currency identity, ignoring display metadata.
func (c Currency) Equals(other Currency) bool {
	if c.ChainID != other.ChainID || c.IsNative != other.IsNative {
		return false
	}
	return c.IsNative || c.Address == other.Address
}

// Wrapped returns the token used to address pools: the currency itself for tokens,
// the wrapped native token for the native coin.
func (c Currency) Wrapped(wrappedNative map[uint64]Currency) (Currency, error) {
	if c.IsToken() {
		return c, nil
	}
	weth, ok := wrappedNative[c.ChainID]
	if !ok {
		return Currency{}, fmt.Errorf("%w %d", ErrNoWrappedNative, c.ChainID)
	}
	return weth, nil
}

// SortsBefore reports whether c orders before other by address, the order pools use for
// token0/token1. Both currencies must be tokens on the same chain with distinct addresses.
func (c Currency) SortsBefore(other Currency) (bool, error) {
	if c.ChainID != other.ChainID {
		return false, ErrChainMismatch
	}
	if c.Address == other.Address {
		return false, ErrSameAddress
	}
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0, nil
}

// CurrencyID returns the identifier recorded with transactions.
func (c Currency) CurrencyID() string {
	if c.IsNative {
		return NativeCurrencyID
	}
	return c.Address.Hex()
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	return c.CurrencyID()
}

// ParseCurrencyAddress accepts a hex address or the 0xEeee... placeholder aggregators use
// for the native coin.
func ParseCurrencyAddress(s string) (common.Address, bool, error) {
	if strings.EqualFold(s, NativePlaceholder.Hex()) {
		return common.Address{}, true, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, false, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), false, nil
}

// NativePlaceholder is the pseudo address 1inch and 0x accept for the native coin.
var NativePlaceholder = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// QuoteAddress returns the address sent to aggregators for this currency.
func (c Currency) QuoteAddress() string {
	if c.IsNative {
		return NativePlaceholder.Hex()
	}
	return c.Address.Hex()
}
