package calls

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

var (
	ErrPermitNativeCurrency = errors.New("native currency cannot be permitted")
	ErrPermitExpired        = errors.New("permit signature has expired")
)

// encodePermit encodes the self-permit call for amount's token. Nonce-based signatures use
// selfPermitAllowed, amount signatures use selfPermit.
func encodePermit(amount models.CurrencyAmount, sig *models.SignatureData) ([]byte, error) {
	if amount.Currency.IsNative {
		return nil, ErrPermitNativeCurrency
	}
	token := amount.Currency.Address

	if sig.Type == models.SignatureTypeAllowed {
		return pack(LimitOrderManagerABI, "selfPermitAllowed",
			token, orZero(sig.Nonce), orZero(sig.Deadline), sig.V, sig.R, sig.S)
	}
	return pack(LimitOrderManagerABI, "selfPermit",
		token, orZero(sig.Amount), orZero(sig.Deadline), sig.V, sig.R, sig.S)
}

// appendPermit adds the permit for amount when a signature is present. A signature whose
// deadline has passed is never encoded.
func (b *Builder) appendPermit(calldatas [][]byte, amount models.CurrencyAmount, sig *models.SignatureData) ([][]byte, error) {
	if sig == nil {
		return calldatas, nil
	}
	if sig.Expired(b.now()) {
		return nil, fmt.Errorf("%w: deadline %s", ErrPermitExpired, orZero(sig.Deadline))
	}
	data, err := encodePermit(amount, sig)
	if err != nil {
		return nil, err
	}
	return append(calldatas, data), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
