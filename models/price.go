package models

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrZeroDenominator = errors.New("price denominator must not be zero")

// Price is the exchange rate from a base currency to a quote currency, kept as an exact
// ratio of raw (base unit) amounts: quote = base * numerator / denominator.
type Price struct {
	Base  Currency
	Quote Currency
	ratio *big.Rat
}

// NewPrice builds a price from a raw numerator and denominator.
func NewPrice(base, quote Currency, numerator, denominator *big.Int) (Price, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return Price{}, ErrZeroDenominator
	}
	if numerator == nil {
		return Price{}, ErrInvalidAmount
	}
	return Price{Base: base, Quote: quote, ratio: new(big.Rat).SetFrac(numerator, denominator)}, nil
}

// NewPriceFromAmounts builds the price implied by exchanging baseAmount for quoteAmount.
func NewPriceFromAmounts(baseAmount, quoteAmount CurrencyAmount) (Price, error) {
	return NewPrice(baseAmount.Currency, quoteAmount.Currency, quoteAmount.Raw(), baseAmount.Raw())
}

// Numerator returns the ratio numerator. The ratio is kept reduced.
func (p Price) Numerator() *big.Int {
	return new(big.Int).Set(p.ratio.Num())
}

// Denominator returns the ratio denominator.
func (p Price) Denominator() *big.Int {
	return new(big.Int).Set(p.ratio.Denom())
}

// Ratio returns a copy of the raw ratio.
func (p Price) Ratio() *big.Rat {
	return new(big.Rat).Set(p.ratio)
}

// Invert swaps base and quote and reciprocates the ratio exactly.
func (p Price) Invert() (Price, error) {
	if p.ratio.Sign() == 0 {
		return Price{}, ErrZeroDenominator
	}
	return Price{Base: p.Quote, Quote: p.Base, ratio: new(big.Rat).Inv(p.ratio)}, nil
}

// QuoteAmount converts an amount of the base currency into the quote currency, rounding down.
func (p Price) QuoteAmount(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.Currency.Equals(p.Base) {
		return CurrencyAmount{}, fmt.Errorf("%w: price base %s, amount %s", ErrCurrencyMismatch, p.Base, amount.Currency)
	}
	v := new(big.Int).Mul(amount.Raw(), p.ratio.Num())
	v.Quo(v, p.ratio.Denom())
	return FromRawAmount(p.Quote, v)
}

// LessThan compares two prices of the same pair.
func (p Price) LessThan(other Price) bool {
	if !p.Base.Equals(other.Base) || !p.Quote.Equals(other.Quote) {
		return false
	}
	return p.ratio.Cmp(other.ratio) < 0
}

// Adjusted returns the price in human units, correcting for the decimals of both sides.
func (p Price) Adjusted() decimal.Decimal {
	num := decimal.NewFromBigInt(p.ratio.Num(), 0)
	den := decimal.NewFromBigInt(p.ratio.Denom(), 0)
	shift := int32(p.Base.Decimals) - int32(p.Quote.Decimals)
	return num.Shift(shift).DivRound(den, 18)
}

// ToSignificant formats the human readable price.
func (p Price) ToSignificant(digits int) string {
	amount := CurrencyAmount{Currency: Currency{Decimals: 18}, raw: p.Adjusted().Shift(18).Truncate(0).BigInt()}
	return amount.ToSignificant(digits)
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s/%s", p.Adjusted().String(), p.Quote, p.Base)
}
