package models

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrFundingUnavailable = errors.New("required funding cannot be computed")

// SwapCall is a fully encoded call, ready to be estimated and sent.
type SwapCall struct {
	Address  common.Address `json:"address"`
	Calldata []byte         `json:"calldata"`
	Value    *big.Int       `json:"value"`
}

// HexValue returns the value as a 0x-prefixed quantity ("0x0" when unset).
func (c SwapCall) HexValue() string {
	if c.Value == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(c.Value)
}

// HasValue reports whether the call transfers native currency.
func (c SwapCall) HasValue() bool {
	return c.Value != nil && c.Value.Sign() != 0
}

// SignatureType distinguishes the two permit flavours.
type SignatureType int

const (
	// SignatureTypeAmount is an EIP-2612 permit carrying an amount and deadline.
	SignatureTypeAmount SignatureType = iota
	// SignatureTypeAllowed is a DAI-style permit carrying a nonce and expiry.
	SignatureTypeAllowed
)

// SignatureData is an off-chain signed permit for the input token.
type SignatureData struct {
	Type     SignatureType
	Token    common.Address
	V        uint8
	R        [32]byte
	S        [32]byte
	Deadline *big.Int // expiry for allowed permits
	Nonce    *big.Int // allowed permits only
	Amount   *big.Int // amount permits only
}

// Expired reports whether the permit deadline has passed.
func (s *SignatureData) Expired(now time.Time) bool {
	if s == nil || s.Deadline == nil {
		return true
	}
	return s.Deadline.Cmp(big.NewInt(now.Unix())) <= 0
}

// SwapCallbackState gates whether a swap may be executed.
type SwapCallbackState int

const (
	SwapCallbackInvalid SwapCallbackState = iota
	SwapCallbackLoading
	SwapCallbackValid
)

func (s SwapCallbackState) String() string {
	switch s {
	case SwapCallbackLoading:
		return "LOADING"
	case SwapCallbackValid:
		return "VALID"
	default:
		return "INVALID"
	}
}

// FundingMultiplier is how many service fees the funding balance must cover.
const FundingMultiplier = 3

// RequiredFunding returns the funding a one-click order needs for the given service fee.
func RequiredFunding(serviceFee *CurrencyAmount) (CurrencyAmount, error) {
	if serviceFee == nil {
		return CurrencyAmount{}, ErrFundingUnavailable
	}
	return serviceFee.Mul(FundingMultiplier)
}
