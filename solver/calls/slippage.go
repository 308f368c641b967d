package calls

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

// SlippageTolerance is a slippage tolerance in basis points.
type SlippageTolerance uint32

const (
	// DefaultSlippage is 0.5%.
	DefaultSlippage SlippageTolerance = 50
	// MaxSlippage is 50%.
	MaxSlippage SlippageTolerance = brokers.MaxSlippageBps

	riskyLowBps  = 5
	riskyHighBps = 100
)

var ErrSlippageOutOfRange = errors.New("slippage tolerance must be between 0% and 50%")

// SlippageWarning flags tolerances that are allowed but likely a mistake.
type SlippageWarning int

const (
	SlippageOK SlippageWarning = iota
	// SlippageRiskyLow means the order may never fill.
	SlippageRiskyLow
	// SlippageRiskyHigh means the order may be frontrun.
	SlippageRiskyHigh
)

func (w SlippageWarning) String() string {
	switch w {
	case SlippageRiskyLow:
		return "Your transaction may fail"
	case SlippageRiskyHigh:
		return "Your transaction may be frontrun"
	default:
		return ""
	}
}

// NewSlippageTolerance validates a tolerance given in basis points.
func NewSlippageTolerance(bps uint32) (SlippageTolerance, error) {
	if bps > uint32(MaxSlippage) {
		return 0, fmt.Errorf("%w: %d bps", ErrSlippageOutOfRange, bps)
	}
	return SlippageTolerance(bps), nil
}

// ParseSlippagePercent parses a percentage such as "0.5" into a tolerance.
// Precision below one basis point is truncated.
func ParseSlippagePercent(value string) (SlippageTolerance, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid slippage %q: %w", value, err)
	}
	bps, err := brokers.PercentToBps(d)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSlippageOutOfRange, err)
	}
	return SlippageTolerance(bps), nil
}

// Percent returns the tolerance as a percentage.
func (s SlippageTolerance) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(s)).Shift(-2)
}

// Warning reports whether the tolerance is in a risky band.
func (s SlippageTolerance) Warning() SlippageWarning {
	switch {
	case s < riskyLowBps:
		return SlippageRiskyLow
	case s > riskyHighBps:
		return SlippageRiskyHigh
	default:
		return SlippageOK
	}
}

// MinAmount returns raw * (1 - s), rounded down. It is zero when raw is nil.
func (s SlippageTolerance) MinAmount(raw *big.Int) *big.Int {
	v, err := brokers.CalculateMinOutput(orZero(raw), uint32(s))
	if err != nil {
		return new(big.Int)
	}
	return v
}

// MaxAmount returns raw * (1 + s), rounded down. It is zero when raw is nil.
func (s SlippageTolerance) MaxAmount(raw *big.Int) *big.Int {
	v, err := brokers.CalculateMaxInput(orZero(raw), uint32(s))
	if err != nil {
		return new(big.Int)
	}
	return v
}

// MinimumAmountOut is the trade output reduced by s for exact input trades. Exact output
// trades return the output unchanged.
func (s SlippageTolerance) MinimumAmountOut(t *models.Trade) (models.CurrencyAmount, error) {
	if t.Type == models.ExactOutput {
		return t.OutputAmount, nil
	}
	raw, err := brokers.CalculateMinOutput(t.OutputAmount.Raw(), uint32(s))
	if err != nil {
		return models.CurrencyAmount{}, err
	}
	return models.FromRawAmount(t.OutputAmount.Currency, raw)
}

// MaximumAmountIn is the trade input raised by s for exact output trades. Exact input
// trades return the input unchanged.
func (s SlippageTolerance) MaximumAmountIn(t *models.Trade) (models.CurrencyAmount, error) {
	if t.Type == models.ExactInput {
		return t.InputAmount, nil
	}
	raw, err := brokers.CalculateMaxInput(t.InputAmount.Raw(), uint32(s))
	if err != nil {
		return models.CurrencyAmount{}, err
	}
	return models.FromRawAmount(t.InputAmount.Currency, raw)
}
