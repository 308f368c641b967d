// Package calls encodes limit order placements for the limit order manager, including the
// optional service fee funding, permits, multicall batching and smart wallet wrapping.
package calls

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "call-builder").Logger()
}

// BuildParams are the inputs of one order placement. Nil fields count as missing.
type BuildParams struct {
	Trade *models.Trade
	// Recipient of the order output.
	Recipient *common.Address
	// Signature permits the input token, optional.
	Signature *models.SignatureData
	// ParsedAmount is the amount of the input currency the order sells.
	ParsedAmount *models.CurrencyAmount
	// PriceTarget is the limit price, base is the input currency.
	PriceTarget *models.Price
	// ServiceFee is the fee of one order in the fee token, required in one-click mode.
	ServiceFee *models.CurrencyAmount
	// AllInOne tops up the service fee funding in the same transaction.
	AllInOne bool
	Funding  *FundingState
	// SmartWallet is the Argent wallet sending the transaction, nil for plain accounts.
	SmartWallet *common.Address
	// Slippage overrides the builder's tolerance.
	Slippage *SlippageTolerance
}

// Builder turns trades into ready-to-send calls for one chain.
type Builder struct {
	chainID           uint64
	limitOrderManager common.Address
	wrappedNative     map[uint64]models.Currency
	slippage          SlippageTolerance
	now               func() time.Time
}

// ErrNoPoolFee is returned for trades whose first pool has no fee tier.
var ErrNoPoolFee = errors.New("trade has no pool fee")

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSlippage sets the default slippage tolerance.
func WithSlippage(s SlippageTolerance) BuilderOption {
	return func(b *Builder) {
		b.slippage = s
	}
}

// WithClock replaces time.Now when checking permit deadlines.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder for the limit order manager at limitOrderManager.
func NewBuilder(chainID uint64, limitOrderManager common.Address, wrappedNative map[uint64]models.Currency, opts ...BuilderOption) *Builder {
	b := &Builder{
		chainID:           chainID,
		limitOrderManager: limitOrderManager,
		wrappedNative:     wrappedNative,
		slippage:          DefaultSlippage,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LimitOrderManager returns the contract orders are placed on.
func (b *Builder) LimitOrderManager() common.Address {
	return b.limitOrderManager
}

// BuildCalls returns the call placing the order described by p. The result holds one call,
// or none when a required input is missing. Identical inputs give identical calldata.
func (b *Builder) BuildCalls(p BuildParams) ([]models.SwapCall, error) {
	if !b.ready(p) {
		return nil, nil
	}
	if p.AllInOne && (p.ServiceFee == nil || !p.Funding.complete()) {
		return nil, nil
	}

	slippage := b.slippage
	if p.Slippage != nil {
		slippage = *p.Slippage
	}
	parsed := *p.ParsedAmount

	order, err := b.orderParams(p.Trade, parsed, *p.PriceTarget, slippage)
	if err != nil {
		return nil, err
	}

	var calldatas [][]byte
	if p.AllInOne {
		if calldatas, err = b.fundingCalls(p.Funding, *p.ServiceFee); err != nil {
			return nil, fmt.Errorf("failed to build funding calls: %w", err)
		}
	}
	if calldatas, err = b.appendPermit(calldatas, parsed, p.Signature); err != nil {
		return nil, fmt.Errorf("failed to build permit: %w", err)
	}
	place, err := EncodePlaceLimitOrder(order)
	if err != nil {
		return nil, err
	}
	calldatas = append(calldatas, place)

	calldata := calldatas[0]
	if len(calldatas) > 1 {
		if calldata, err = EncodeMulticall(calldatas); err != nil {
			return nil, err
		}
	}

	value := new(big.Int)
	if parsed.Currency.IsNative {
		value = parsed.Raw()
	}

	log.Debug().
		Int("calls", len(calldatas)).
		Str("token0", order.Token0.Hex()).
		Str("token1", order.Token1.Hex()).
		Bool("allInOne", p.AllInOne).
		Msg("Built limit order")

	if p.SmartWallet != nil && parsed.Currency.IsToken() {
		approve, err := approveCall(parsed, b.limitOrderManager)
		if err != nil {
			return nil, err
		}
		wrapped, err := EncodeWalletMultiCall([]WalletCall{
			approve,
			{To: b.limitOrderManager, Value: value, Data: calldata},
		})
		if err != nil {
			return nil, err
		}
		return []models.SwapCall{{Address: *p.SmartWallet, Calldata: wrapped, Value: new(big.Int)}}, nil
	}
	return []models.SwapCall{{Address: b.limitOrderManager, Calldata: calldata, Value: value}}, nil
}

func (b *Builder) ready(p BuildParams) bool {
	return p.Trade != nil &&
		p.Recipient != nil &&
		b.chainID != 0 &&
		b.limitOrderManager != (common.Address{}) &&
		p.ParsedAmount != nil &&
		p.PriceTarget != nil
}

// orderParams sorts the pair so the sold amount lands on the right side and the price
// reads token1 per token0.
func (b *Builder) orderParams(trade *models.Trade, parsed models.CurrencyAmount, target models.Price, slippage SlippageTolerance) (LimitOrderParams, error) {
	token0, err := parsed.Currency.Wrapped(b.wrappedNative)
	if err != nil {
		return LimitOrderParams{}, err
	}
	token1, err := target.Quote.Wrapped(b.wrappedNative)
	if err != nil {
		return LimitOrderParams{}, err
	}
	amount0, amount1 := parsed.Raw(), new(big.Int)

	sorted, err := token0.SortsBefore(token1)
	if err != nil {
		return LimitOrderParams{}, err
	}
	if !sorted {
		token0, token1 = token1, token0
		amount0, amount1 = amount1, amount0
		if target, err = target.Invert(); err != nil {
			return LimitOrderParams{}, err
		}
	}

	sqrtPrice, err := EncodeSqrtRatioX96(target.Numerator(), target.Denominator())
	if err != nil {
		return LimitOrderParams{}, fmt.Errorf("target price: %w", err)
	}
	fee := trade.FeeTier()
	if fee == 0 {
		return LimitOrderParams{}, ErrNoPoolFee
	}

	return LimitOrderParams{
		Token0:       token0.Address,
		Token1:       token1.Address,
		Fee:          new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceX96: sqrtPrice,
		Amount0:      amount0,
		Amount1:      amount1,
		Amount0Min:   slippage.MinAmount(amount0),
		Amount1Min:   slippage.MinAmount(amount1),
	}, nil
}
