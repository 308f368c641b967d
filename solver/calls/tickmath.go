package calls

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

const (
	MinTick int32 = -887272
	MaxTick int32 = 887272

	// DefaultTickOffset is how many tick spacings the minimum price sits past the mid price.
	DefaultTickOffset int32 = 1
)

var (
	MinSqrtRatio = big.NewInt(4295128739)
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	q32        = new(big.Int).Lsh(big.NewInt(1), 32)

	ErrTickOutOfRange       = errors.New("tick out of range")
	ErrSqrtRatioOutOfRange  = errors.New("sqrt ratio out of range")
	ErrUnknownTickSpacing   = errors.New("no tick spacing for fee tier")
	errMalformedTickFactors = errors.New("malformed tick factor")
)

// tickFactors[i] is the Q128 ratio for bit i of |tick|, bit 0 excluded.
var tickFactors = []*big.Int{
	mustHex("fff97272373d413259a46990580e213a"),
	mustHex("fff2e50f5f656932ef12357cf3c7fdcc"),
	mustHex("ffe5caca7e10e4e61c3624eaa0941cd0"),
	mustHex("ffcb9843d60f6159c9db58835c926644"),
	mustHex("ff973b41fa98c081472e6896dfb254c0"),
	mustHex("ff2ea16466c96a3843ec78b326b52861"),
	mustHex("fe5dee046a99a2a811c461f1969c3053"),
	mustHex("fcbe86c7900a88aedcffc83b479aa3a4"),
	mustHex("f987a7253ac413176f2b074cf7815e54"),
	mustHex("f3392b0822b70005940c7a398e4b70f3"),
	mustHex("e7159475a2c29b7443b29c7fa6e889d9"),
	mustHex("d097f3bdfd2022b8845ad8f792aa5825"),
	mustHex("a9f746462d870fdf8a65dc1f90e061e5"),
	mustHex("70d869a156d2a1b890bb3df62baf32f7"),
	mustHex("31be135f97d08fd981231505542fcfa6"),
	mustHex("9aa508b5b7a84e1c677de54f3e99bc9"),
	mustHex("5d6af8dedb81196699c329225ee604"),
	mustHex("2216e584f5fa1ea926041bedfe98"),
	mustHex("48a170391f7dc42444e8fa2"),
}

var tickBit0 = mustHex("fffcb933bd6fad37aa2d162d1a594001")

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic(errMalformedTickFactors)
	}
	return v
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(errMalformedTickFactors)
	}
	return v
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 number, rounded up.
func GetSqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	if absTick&1 != 0 {
		ratio.Set(tickBit0)
	}
	for i, factor := range tickFactors {
		if absTick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Quo(maxUint256, ratio)
	}

	rem := new(big.Int).Mod(ratio, q32)
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is at most sqrtRatioX96.
func GetTickAtSqrtRatio(sqrtRatioX96 *big.Int) (int32, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtRatioOutOfRange
	}
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtRatioX96) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// NearestUsableTick rounds tick to the nearest multiple of spacing inside the tick range.
// Halves round up.
func NearestUsableTick(tick, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	q := tick / spacing
	r := tick % spacing
	if r < 0 {
		q--
		r += spacing
	}
	if 2*r >= spacing {
		q++
	}
	rounded := q * spacing
	switch {
	case rounded < MinTick:
		return rounded + spacing
	case rounded > MaxTick:
		return rounded - spacing
	}
	return rounded
}

// TickToRatio returns the raw price of the quote token in base token units at tick.
// baseIsToken0 tells whether the base token is token0 of the pool.
func TickToRatio(tick int32, baseIsToken0 bool) (*big.Rat, error) {
	sqrtRatio, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	ratioX192 := new(big.Int).Mul(sqrtRatio, sqrtRatio)
	if baseIsToken0 {
		return new(big.Rat).SetFrac(ratioX192, Q192), nil
	}
	return new(big.Rat).SetFrac(Q192, ratioX192), nil
}

// MinimumPrice returns the lowest limit price the order manager will accept for trade:
// the mid price moved tickOffset tick spacings in the order's favour, snapped to a usable
// tick. The result is priced in the trade's input and output currencies.
func MinimumPrice(trade *models.Trade, wrappedNative map[uint64]models.Currency, tickOffset int32) (models.Price, error) {
	if trade == nil {
		return models.Price{}, errors.New("missing trade")
	}
	spacing, ok := models.TickSpacings[trade.FeeTier()]
	if !ok {
		return models.Price{}, fmt.Errorf("%w %d", ErrUnknownTickSpacing, trade.FeeTier())
	}

	mid := trade.MidPrice()
	base, err := mid.Base.Wrapped(wrappedNative)
	if err != nil {
		return models.Price{}, err
	}
	quote, err := mid.Quote.Wrapped(wrappedNative)
	if err != nil {
		return models.Price{}, err
	}
	sorted, err := base.SortsBefore(quote)
	if err != nil {
		return models.Price{}, err
	}

	var sqrtRatio *big.Int
	if sorted {
		sqrtRatio, err = EncodeSqrtRatioX96(mid.Numerator(), mid.Denominator())
	} else {
		sqrtRatio, err = EncodeSqrtRatioX96(mid.Denominator(), mid.Numerator())
	}
	if err != nil {
		return models.Price{}, err
	}
	tick, err := GetTickAtSqrtRatio(sqrtRatio)
	if err != nil {
		return models.Price{}, err
	}

	next := tick - tickOffset*spacing
	if sorted {
		next = tick + tickOffset*spacing
	}
	if nextRatio, err := TickToRatio(next, sorted); err == nil && nextRatio.Cmp(mid.Ratio()) >= 0 {
		tick = next
	}

	usable, err := GetSqrtRatioAtTick(NearestUsableTick(tick, spacing))
	if err != nil {
		return models.Price{}, err
	}
	ratioX192 := new(big.Int).Mul(usable, usable)
	if sorted {
		return models.NewPrice(trade.InputAmount.Currency, trade.OutputAmount.Currency, ratioX192, Q192)
	}
	return models.NewPrice(trade.InputAmount.Currency, trade.OutputAmount.Currency, Q192, ratioX192)
}
