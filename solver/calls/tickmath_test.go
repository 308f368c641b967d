package calls_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
)

func TestEncodeSqrtRatioX96(t *testing.T) {
	cases := []struct {
		amount1, amount0 int64
		want             string
	}{
		{1, 1, calls.Q96.String()},
		{100, 1, new(big.Int).Mul(calls.Q96, big.NewInt(10)).String()},
		{1, 100, "7922816251426433759354395033"},
		{111, 333, "45742400955009932534161870629"},
	}
	for _, tc := range cases {
		got, err := calls.EncodeSqrtRatioX96(big.NewInt(tc.amount1), big.NewInt(tc.amount0))
		assert.NoError(t, err)
		assert.Equal(t, got.String(), tc.want)
	}

	_, err := calls.EncodeSqrtRatioX96(big.NewInt(1), big.NewInt(0))
	assert.True(t, errors.Is(err, calls.ErrInvalidRatio))
}

func TestGetSqrtRatioAtTick(t *testing.T) {
	got, err := calls.GetSqrtRatioAtTick(0)
	assert.NoError(t, err)
	assert.Equal(t, got.String(), calls.Q96.String())

	got, err = calls.GetSqrtRatioAtTick(calls.MinTick)
	assert.NoError(t, err)
	assert.Equal(t, got.String(), calls.MinSqrtRatio.String())

	got, err = calls.GetSqrtRatioAtTick(calls.MaxTick)
	assert.NoError(t, err)
	assert.Equal(t, got.String(), calls.MaxSqrtRatio.String())

	_, err = calls.GetSqrtRatioAtTick(calls.MaxTick + 1)
	assert.True(t, errors.Is(err, calls.ErrTickOutOfRange))
}

func TestGetTickAtSqrtRatio(t *testing.T) {
	tick, err := calls.GetTickAtSqrtRatio(calls.MinSqrtRatio)
	assert.NoError(t, err)
	assert.Equal(t, tick, calls.MinTick)

	tick, err = calls.GetTickAtSqrtRatio(new(big.Int).Sub(calls.MaxSqrtRatio, big.NewInt(1)))
	assert.NoError(t, err)
	assert.Equal(t, tick, calls.MaxTick-1)

	for _, want := range []int32{-200_000, -60, -1, 0, 1, 60, 200_000} {
		ratio, err := calls.GetSqrtRatioAtTick(want)
		assert.NoError(t, err)
		got, err := calls.GetTickAtSqrtRatio(ratio)
		assert.NoError(t, err)
		assert.Equal(t, got, want)

		got, err = calls.GetTickAtSqrtRatio(new(big.Int).Sub(ratio, big.NewInt(1)))
		assert.NoError(t, err)
		assert.Equal(t, got, want-1)
	}

	_, err = calls.GetTickAtSqrtRatio(calls.MaxSqrtRatio)
	assert.True(t, errors.Is(err, calls.ErrSqrtRatioOutOfRange))
}

func TestNearestUsableTick(t *testing.T) {
	cases := []struct {
		tick, spacing, want int32
	}{
		{5, 10, 10},
		{4, 10, 0},
		{-5, 10, 0},
		{-6, 10, -10},
		{119, 60, 120},
		{calls.MinTick, 60, -887220},
		{calls.MaxTick, 60, 887220},
	}
	for _, tc := range cases {
		assert.Equal(t, calls.NearestUsableTick(tc.tick, tc.spacing), tc.want)
	}
}

func TestMinimumPrice(t *testing.T) {
	p := ethForUSDC(t)
	mid := p.Trade.MidPrice().Ratio()

	got, err := calls.MinimumPrice(p.Trade, wrappedNative, calls.DefaultTickOffset)
	assert.NoError(t, err)
	assert.True(t, got.Base.Equals(eth))
	assert.True(t, got.Quote.Equals(usdc))

	// within two tick spacings (about 1.2%) of the mid price
	diff := new(big.Rat).Quo(got.Ratio(), mid)
	diff.Sub(diff, big.NewRat(1, 1))
	diff.Abs(diff)
	assert.True(t, diff.Cmp(big.NewRat(12, 1000)) < 0)

	sorted := usdcForWETH(t)
	got, err = calls.MinimumPrice(sorted.Trade, wrappedNative, calls.DefaultTickOffset)
	assert.NoError(t, err)
	diff = new(big.Rat).Quo(got.Ratio(), sorted.Trade.MidPrice().Ratio())
	diff.Sub(diff, big.NewRat(1, 1))
	diff.Abs(diff)
	assert.True(t, diff.Cmp(big.NewRat(12, 1000)) < 0)
}

func TestMinimumPrice_UnknownFeeTier(t *testing.T) {
	p := ethForUSDC(t)
	p.Trade.Route[0].Fee = 42
	_, err := calls.MinimumPrice(p.Trade, wrappedNative, calls.DefaultTickOffset)
	assert.True(t, errors.Is(err, calls.ErrUnknownTickSpacing))
}

func TestSlippageTolerance(t *testing.T) {
	s, err := calls.ParseSlippagePercent("0.5")
	assert.NoError(t, err)
	assert.Equal(t, s, calls.DefaultSlippage)
	assert.Equal(t, s.Percent().String(), "0.5")
	assert.Equal(t, s.Warning(), calls.SlippageOK)

	assert.Equal(t, s.MinAmount(big.NewInt(10_000)).String(), "9950")
	assert.Equal(t, s.MaxAmount(big.NewInt(10_000)).String(), "10050")

	_, err = calls.ParseSlippagePercent("50.01")
	assert.True(t, errors.Is(err, calls.ErrSlippageOutOfRange))
	_, err = calls.ParseSlippagePercent("-1")
	assert.True(t, errors.Is(err, calls.ErrSlippageOutOfRange))
	_, err = calls.NewSlippageTolerance(5001)
	assert.True(t, errors.Is(err, calls.ErrSlippageOutOfRange))

	assert.Equal(t, calls.SlippageTolerance(4).Warning(), calls.SlippageRiskyLow)
	assert.Equal(t, calls.SlippageTolerance(101).Warning(), calls.SlippageRiskyHigh)
	assert.Equal(t, calls.SlippageTolerance(100).Warning(), calls.SlippageOK)
}

func TestSlippageTolerance_TradeBounds(t *testing.T) {
	out := amount(t, usdc, big.NewInt(1_800_000_000))
	in := amount(t, eth, ether(1))
	exactIn := trade(t, models.ExactInput, in, out, models.FeeMedium)

	minOut, err := calls.DefaultSlippage.MinimumAmountOut(exactIn)
	assert.NoError(t, err)
	assert.Equal(t, minOut.Raw().String(), calls.DefaultSlippage.MinAmount(out.Raw()).String())
	assert.Equal(t, minOut.Raw().String(), "1791000000")
	maxIn, err := calls.DefaultSlippage.MaximumAmountIn(exactIn)
	assert.NoError(t, err)
	assert.Equal(t, maxIn.ToExact(), "1")

	exactOut := trade(t, models.ExactOutput, in, out, models.FeeMedium)
	maxIn, err = calls.DefaultSlippage.MaximumAmountIn(exactOut)
	assert.NoError(t, err)
	assert.Equal(t, maxIn.ToExact(), "1.005")
	minOut, err = calls.DefaultSlippage.MinimumAmountOut(exactOut)
	assert.NoError(t, err)
	assert.Equal(t, minOut.Raw().String(), "1800000000")

	assert.Equal(t, calls.DefaultSlippage.MinAmount(nil).Sign(), 0)
}
