package brokers_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

func TestCalculateMinOutput(t *testing.T) {
	out, err := brokers.CalculateMinOutput(big.NewInt(1_800_000_000), 50)
	assert.NoError(t, err)
	assert.Equal(t, out.String(), "1791000000")

	out, err = brokers.CalculateMinOutput(big.NewInt(999), 0)
	assert.NoError(t, err)
	assert.Equal(t, out.String(), "999")

	_, err = brokers.CalculateMinOutput(big.NewInt(1), 10001)
	assert.Error(t, err)
	_, err = brokers.CalculateMinOutput(nil, 50)
	assert.Error(t, err)
}

func TestCalculateMaxInput(t *testing.T) {
	in, err := brokers.CalculateMaxInput(big.NewInt(1_000_000), 50)
	assert.NoError(t, err)
	assert.Equal(t, in.String(), "1005000")
}

func TestPercentToBps(t *testing.T) {
	bps, err := brokers.PercentToBps(decimal.RequireFromString("0.5"))
	assert.NoError(t, err)
	assert.Equal(t, bps, uint32(50))

	bps, err = brokers.PercentToBps(decimal.RequireFromString("50"))
	assert.NoError(t, err)
	assert.Equal(t, bps, uint32(5000))

	_, err = brokers.PercentToBps(decimal.RequireFromString("50.01"))
	assert.Error(t, err)
	_, err = brokers.PercentToBps(decimal.RequireFromString("-1"))
	assert.Error(t, err)

	assert.Equal(t, brokers.PercentToFraction(decimal.RequireFromString("0.5")).String(), "0.005")
}

func TestPairRequest_Validate(t *testing.T) {
	err := brokers.PairRequest{}.Validate()
	var verr *brokers.ValidationError
	assert.Error(t, err)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, len(verr.Problems), 4)
	assert.Equal(t, verr.Problems[3], `"slippage" is required`)
}
