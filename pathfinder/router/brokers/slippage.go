package brokers

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const bpsDenominator = 10000

// MaxSlippageBps is the largest tolerance accepted anywhere in the pipeline (50%).
const MaxSlippageBps = 5000

// CalculateMinOutput calculates minimum output with slippage tolerance.
// slippageBps is basis points (e.g., 100 = 1%)
// minOutput = expected * (10000 - slippageBps) / 10000
func CalculateMinOutput(expectedOutput *big.Int, slippageBps uint32) (*big.Int, error) {
	if expectedOutput == nil || expectedOutput.Sign() < 0 {
		return nil, fmt.Errorf("invalid expected output: %v", expectedOutput)
	}
	if slippageBps > bpsDenominator {
		return nil, fmt.Errorf("slippage %d bps exceeds 100%%", slippageBps)
	}
	v := new(big.Int).Mul(expectedOutput, big.NewInt(int64(bpsDenominator-slippageBps)))
	return v.Quo(v, big.NewInt(bpsDenominator)), nil
}

// CalculateMaxInput calculates the maximum input with slippage tolerance.
// maxInput = expected * (10000 + slippageBps) / 10000
func CalculateMaxInput(expectedInput *big.Int, slippageBps uint32) (*big.Int, error) {
	if expectedInput == nil || expectedInput.Sign() < 0 {
		return nil, fmt.Errorf("invalid expected input: %v", expectedInput)
	}
	v := new(big.Int).Mul(expectedInput, big.NewInt(int64(bpsDenominator+slippageBps)))
	return v.Quo(v, big.NewInt(bpsDenominator)), nil
}

// PercentToBps converts a percentage such as 0.5 into basis points, rounding down.
func PercentToBps(percent decimal.Decimal) (uint32, error) {
	if percent.IsNegative() {
		return 0, fmt.Errorf("slippage must not be negative: %s", percent)
	}
	bps := percent.Shift(2).Truncate(0)
	if bps.GreaterThan(decimal.NewFromInt(MaxSlippageBps)) {
		return 0, fmt.Errorf("slippage %s%% exceeds %d bps", percent, MaxSlippageBps)
	}
	return uint32(bps.IntPart()), nil
}

// PercentToFraction converts a percentage into the fraction form 0x expects (0.5 -> 0.005).
func PercentToFraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Shift(-2)
}
