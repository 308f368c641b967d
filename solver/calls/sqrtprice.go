package calls

import (
	"errors"
	"math/big"
)

var (
	// Q96 is 2^96, the fixed point scale of sqrt prices.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q192 is 2^192, the scale of squared sqrt prices.
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	ErrInvalidRatio = errors.New("ratio must be positive")
)

// EncodeSqrtRatioX96 returns floor(sqrt(amount1 * 2^192 / amount0)), the Q64.96 square
// root price of token1 in terms of token0.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount1 == nil || amount0 == nil || amount0.Sign() <= 0 || amount1.Sign() < 0 {
		return nil, ErrInvalidRatio
	}
	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)
	return new(big.Int).Sqrt(ratioX192), nil
}
