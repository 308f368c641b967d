package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
)

// Contracts reads the limit order manager and ERC-20 state an order depends on.
type Contracts struct {
	backend           Backend
	limitOrderManager common.Address
}

// NewContracts creates a reader for the limit order manager at limitOrderManager.
func NewContracts(backend Backend, limitOrderManager common.Address) *Contracts {
	return &Contracts{backend: backend, limitOrderManager: limitOrderManager}
}

// ServiceFee returns the fee for one order at gasPrice, in fee token base units.
func (c *Contracts) ServiceFee(ctx context.Context, gasPrice *big.Int, owner common.Address) (*big.Int, error) {
	return c.readUint(ctx, calls.LimitOrderManagerABI, c.limitOrderManager, "estimateServiceFee", gasPrice, big.NewInt(1), owner)
}

// CurrentServiceFee prices one order at the node's suggested gas price.
func (c *Contracts) CurrentServiceFee(ctx context.Context, feeToken models.Currency, owner common.Address) (models.CurrencyAmount, error) {
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return models.CurrencyAmount{}, fmt.Errorf("failed to get gas price: %w", err)
	}
	fee, err := c.ServiceFee(ctx, gasPrice, owner)
	if err != nil {
		return models.CurrencyAmount{}, err
	}
	return models.FromRawAmount(feeToken, fee)
}

// Funding returns the service fee funding owner has deposited.
func (c *Contracts) Funding(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.readUint(ctx, calls.LimitOrderManagerABI, c.limitOrderManager, "funding", owner)
}

// Allowance returns the ERC-20 allowance owner granted spender.
func (c *Contracts) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.readUint(ctx, calls.ERC20ABI, token, "allowance", owner, spender)
}

// BalanceOf returns the ERC-20 balance of owner.
func (c *Contracts) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return c.readUint(ctx, calls.ERC20ABI, token, "balanceOf", owner)
}

// Balance returns owner's balance of currency, native or ERC-20.
func (c *Contracts) Balance(ctx context.Context, currency models.Currency, owner common.Address) (models.CurrencyAmount, error) {
	var (
		raw *big.Int
		err error
	)
	if currency.IsNative {
		raw, err = c.backend.BalanceAt(ctx, owner, nil)
	} else {
		raw, err = c.BalanceOf(ctx, currency.Address, owner)
	}
	if err != nil {
		return models.CurrencyAmount{}, fmt.Errorf("failed to read %s balance: %w", currency, err)
	}
	return models.FromRawAmount(currency, raw)
}

// FundingState reads everything a one-click order needs about owner's funding. The
// funding trade and signature are passed through.
func (c *Contracts) FundingState(ctx context.Context, owner common.Address, feeToken models.Currency, fundingTrade *models.Trade, sig *models.SignatureData) (*calls.FundingState, error) {
	var allowance, funding, wallet *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allowance, err = c.Allowance(gctx, feeToken.Address, owner, c.limitOrderManager)
		return err
	})
	g.Go(func() (err error) {
		funding, err = c.Funding(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		wallet, err = c.BalanceOf(gctx, feeToken.Address, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	state := &calls.FundingState{FeeToken: feeToken, Trade: fundingTrade, Signature: sig}
	for _, v := range []struct {
		dst **models.CurrencyAmount
		raw *big.Int
	}{
		{&state.Allowance, allowance},
		{&state.Balance, funding},
		{&state.WalletBalance, wallet},
	} {
		amount, err := models.FromRawAmount(feeToken, v.raw)
		if err != nil {
			return nil, err
		}
		*v.dst = &amount
	}
	return state, nil
}

func (c *Contracts) readUint(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) (*big.Int, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result %T", method, values[0])
	}
	return v, nil
}
