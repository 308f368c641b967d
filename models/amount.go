package models

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// CurrencyAmount is an exact amount of a currency in base units.
// Values are never mutated; every operation returns a new amount.
type CurrencyAmount struct {
	Currency Currency
	raw      *big.Int
}

// FromRawAmount builds an amount from base units.
func FromRawAmount(currency Currency, raw *big.Int) (CurrencyAmount, error) {
	if raw == nil {
		return CurrencyAmount{}, ErrInvalidAmount
	}
	if raw.Sign() < 0 {
		return CurrencyAmount{}, ErrNegativeAmount
	}
	return CurrencyAmount{Currency: currency, raw: new(big.Int).Set(raw)}, nil
}

// FromRawString builds an amount from a base-10 string of base units.
func FromRawString(currency Currency, raw string) (CurrencyAmount, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return CurrencyAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return FromRawAmount(currency, v)
}

// MustRawAmount is FromRawAmount for constants known to be valid.
func MustRawAmount(currency Currency, raw int64) CurrencyAmount {
	a, err := FromRawAmount(currency, big.NewInt(raw))
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAmount converts a human readable value ("1.5") into base units of the currency.
// Digits beyond the currency decimals are truncated.
func ParseAmount(value string, currency Currency) (CurrencyAmount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return CurrencyAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if d.IsNegative() {
		return CurrencyAmount{}, ErrNegativeAmount
	}
	raw := d.Shift(int32(currency.Decimals)).Truncate(0).BigInt()
	return FromRawAmount(currency, raw)
}

// Raw returns a copy of the base unit value.
func (a CurrencyAmount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// IsZero reports whether the amount is zero.
func (a CurrencyAmount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Add returns a + b.
func (a CurrencyAmount) Add(b CurrencyAmount) (CurrencyAmount, error) {
	if !a.Currency.Equals(b.Currency) {
		return CurrencyAmount{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return FromRawAmount(a.Currency, new(big.Int).Add(a.Raw(), b.Raw()))
}

// Sub returns a - b and fails when the result would be negative.
func (a CurrencyAmount) Sub(b CurrencyAmount) (CurrencyAmount, error) {
	if !a.Currency.Equals(b.Currency) {
		return CurrencyAmount{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return FromRawAmount(a.Currency, new(big.Int).Sub(a.Raw(), b.Raw()))
}

// Mul scales the amount by an integer factor.
func (a CurrencyAmount) Mul(factor int64) (CurrencyAmount, error) {
	return FromRawAmount(a.Currency, new(big.Int).Mul(a.Raw(), big.NewInt(factor)))
}

// Cmp compares two amounts of the same currency.
func (a CurrencyAmount) Cmp(b CurrencyAmount) (int, error) {
	if !a.Currency.Equals(b.Currency) {
		return 0, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// LessThan reports a < b. Amounts of different currencies are never less than each other.
func (a CurrencyAmount) LessThan(b CurrencyAmount) bool {
	c, err := a.Cmp(b)
	return err == nil && c < 0
}

// ToDecimal returns the amount in human units.
func (a CurrencyAmount) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Raw(), -int32(a.Currency.Decimals))
}

// ToExact formats the amount in human units without rounding.
func (a CurrencyAmount) ToExact() string {
	return a.ToDecimal().String()
}

// ToSignificant formats the amount rounded to the given number of significant digits.
func (a CurrencyAmount) ToSignificant(digits int) string {
	d := a.ToDecimal()
	if d.IsZero() {
		return "0"
	}
	exp := int32(len(d.Truncate(0).Abs().String()))
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		exp = 0
		for v := d.Abs(); v.LessThan(decimal.NewFromInt(1)); v = v.Shift(1) {
			exp--
		}
		exp++
	}
	places := int32(digits) - exp
	if places < 0 {
		places = 0
	}
	return d.Round(places).String()
}

func (a CurrencyAmount) String() string {
	return a.ToExact() + " " + a.Currency.String()
}
