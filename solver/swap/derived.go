// Package swap derives what a limit order form needs before calls are built: the minimum
// price, the amounts on both sides, the limit price and the first input error to show.
package swap

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "swap-info").Logger()
}

// Input errors, in the order they are checked.
const (
	MsgConnectWallet       = "Connect Wallet"
	MsgPairNotAvailable    = "Trading pair not available"
	MsgEnterAmount         = "Enter an amount"
	MsgSelectToken         = "Select a token"
	MsgEnterRecipient      = "Enter a recipient"
	MsgInvalidRecipient    = "Invalid recipient"
	MsgBelowMinimumPrice   = "Place limit order above the minimum price"
	msgInsufficientBalance = "Insufficient %s balance"
)

// Inputs is the state of an order form.
type Inputs struct {
	Account        *common.Address
	InputCurrency  *models.Currency
	OutputCurrency *models.Currency
	// InputAmount is the amount being sold.
	InputAmount *models.CurrencyAmount
	// OutputAmount is set when the user typed the output or a target rate. Otherwise it
	// is derived from the input at the minimum price.
	OutputAmount *models.CurrencyAmount
	// Recipient defaults to Account.
	Recipient    *common.Address
	Trade        *models.Trade
	InputBalance *models.CurrencyAmount
}

// Info is the derived view of an order form. InputError is empty when the order may be
// placed.
type Info struct {
	MinPrice     *models.Price
	Price        *models.Price
	InputAmount  *models.CurrencyAmount
	OutputAmount *models.CurrencyAmount
	Recipient    *common.Address
	InputError   string
}

// Ready reports whether no input error is pending.
func (i Info) Ready() bool {
	return i.InputError == ""
}

// Deriver computes Info for one chain.
type Deriver struct {
	wrappedNative map[uint64]models.Currency
	tickOffset    int32
	badRecipients map[common.Address]struct{}
}

// NewDeriver creates a deriver. The zero address is always rejected as a recipient, along
// with every address in badRecipients, usually the limit order manager and the router.
func NewDeriver(wrappedNative map[uint64]models.Currency, tickOffset int32, badRecipients ...common.Address) *Deriver {
	if tickOffset == 0 {
		tickOffset = calls.DefaultTickOffset
	}
	bad := map[common.Address]struct{}{common.Address{}: {}}
	for _, addr := range badRecipients {
		bad[addr] = struct{}{}
	}
	return &Deriver{wrappedNative: wrappedNative, tickOffset: tickOffset, badRecipients: bad}
}

// Derive computes the derived view of in. Later checks never replace an earlier error,
// except an insufficient balance, which always wins.
func (d *Deriver) Derive(in Inputs) Info {
	info := Info{InputAmount: in.InputAmount, OutputAmount: in.OutputAmount}
	info.MinPrice = d.minimumPrice(in)
	if info.OutputAmount == nil {
		// quoted at the minimum price, so the limit price is that price exactly
		info.OutputAmount, info.Price = outputAtPrice(in.InputAmount, info.MinPrice)
	}

	setError := func(msg string) {
		if info.InputError == "" {
			info.InputError = msg
		}
	}

	if in.Account == nil {
		setError(MsgConnectWallet)
	}
	if info.MinPrice == nil && (info.InputAmount != nil || info.OutputAmount != nil) {
		setError(MsgPairNotAvailable)
	}
	if info.InputAmount == nil || info.OutputAmount == nil {
		setError(MsgEnterAmount)
	}
	if in.InputCurrency == nil || in.OutputCurrency == nil {
		setError(MsgSelectToken)
	}

	info.Recipient = in.Recipient
	if info.Recipient == nil {
		info.Recipient = in.Account
	}
	switch {
	case info.Recipient == nil:
		setError(MsgEnterRecipient)
	case d.isBadRecipient(*info.Recipient):
		setError(MsgInvalidRecipient)
	}

	if info.Price == nil && info.InputAmount != nil && info.OutputAmount != nil && !info.InputAmount.IsZero() {
		if price, err := models.NewPriceFromAmounts(*info.InputAmount, *info.OutputAmount); err == nil {
			info.Price = &price
		}
	}
	if info.Price != nil && info.MinPrice != nil && in.Trade != nil && info.Price.LessThan(*info.MinPrice) {
		setError(MsgBelowMinimumPrice)
	}

	if in.InputBalance != nil && in.InputAmount != nil && in.InputBalance.LessThan(*in.InputAmount) {
		info.InputError = fmt.Sprintf(msgInsufficientBalance, in.InputAmount.Currency.Symbol)
	}
	return info
}

func (d *Deriver) minimumPrice(in Inputs) *models.Price {
	if in.Trade == nil || in.InputCurrency == nil || in.OutputCurrency == nil {
		return nil
	}
	price, err := calls.MinimumPrice(in.Trade, d.wrappedNative, d.tickOffset)
	if err != nil {
		log.Debug().Err(err).Msg("No minimum price for trade")
		return nil
	}
	return &price
}

func (d *Deriver) isBadRecipient(addr common.Address) bool {
	_, bad := d.badRecipients[addr]
	return bad
}

// outputAtPrice quotes input at price, inverting the price when it is expressed in the
// other direction. It returns the output and the price oriented from input to output.
func outputAtPrice(input *models.CurrencyAmount, price *models.Price) (*models.CurrencyAmount, *models.Price) {
	if input == nil || price == nil {
		return nil, nil
	}
	p := *price
	if !p.Base.Equals(input.Currency) {
		inverted, err := p.Invert()
		if err != nil {
			return nil, nil
		}
		p = inverted
	}
	out, err := p.QuoteAmount(*input)
	if err != nil {
		return nil, nil
	}
	return &out, &p
}
