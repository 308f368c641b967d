package calls

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// The funding order tolerates 50/3000 (about 1.67%) slippage.
var (
	fundingSlippageNum = big.NewInt(50)
	fundingSlippageDen = big.NewInt(3000)
)

// FundingState is the owner's service fee position, read before building a one-click order.
type FundingState struct {
	// FeeToken is the token service fees are paid in.
	FeeToken models.Currency
	// Allowance is the fee token allowance granted to the limit order manager.
	Allowance *models.CurrencyAmount
	// Balance is the funding already deposited in the limit order manager.
	Balance *models.CurrencyAmount
	// WalletBalance is the fee token held by the owner. Nil counts as zero.
	WalletBalance *models.CurrencyAmount
	// Trade buys the required funding with the wrapped native token.
	Trade *models.Trade
	// Signature permits the fee token for the funding deposit, optional.
	Signature *models.SignatureData
}

func (f *FundingState) complete() bool {
	return f != nil && f.Allowance != nil && f.Balance != nil && f.Trade != nil
}

// fundingCalls returns the calls topping up the owner's funding to three service fees:
// approve when the allowance is short, buy the fee token when the wallet holds no more than
// one fee, then deposit. Nothing is returned when the deposited funding already suffices.
func (b *Builder) fundingCalls(f *FundingState, serviceFee models.CurrencyAmount) ([][]byte, error) {
	required, err := models.RequiredFunding(&serviceFee)
	if err != nil {
		return nil, err
	}
	enough, err := f.Balance.Cmp(required)
	if err != nil {
		return nil, fmt.Errorf("funding balance: %w", err)
	}
	if enough >= 0 {
		return nil, nil
	}

	var calldatas [][]byte
	if allowed, err := f.Allowance.Cmp(required); err != nil {
		return nil, fmt.Errorf("funding allowance: %w", err)
	} else if allowed < 0 {
		data, err := EncodeApprove(b.limitOrderManager, required.Raw())
		if err != nil {
			return nil, err
		}
		calldatas = append(calldatas, data)
	}

	wallet := new(big.Int)
	if f.WalletBalance != nil {
		wallet = f.WalletBalance.Raw()
	}
	if wallet.Cmp(serviceFee.Raw()) <= 0 {
		if calldatas, err = b.appendPermit(calldatas, required, f.Signature); err != nil {
			return nil, err
		}
		order, err := b.fundingOrder(f)
		if err != nil {
			return nil, err
		}
		calldatas = append(calldatas, order)
	}

	deposit, err := EncodeAddFunding(required.Raw())
	if err != nil {
		return nil, err
	}
	return append(calldatas, deposit), nil
}

// fundingOrder places a limit order buying the fee token with the wrapped native token at
// the funding trade's execution price.
func (b *Builder) fundingOrder(f *FundingState) ([]byte, error) {
	weth, ok := b.wrappedNative[b.chainID]
	if !ok {
		return nil, fmt.Errorf("%w %d", models.ErrNoWrappedNative, b.chainID)
	}
	trade := f.Trade
	price := trade.ExecutionPrice
	fee := trade.FeeTier()
	if fee == 0 {
		return nil, ErrNoPoolFee
	}

	params := LimitOrderParams{
		Token0:     weth.Address,
		Token1:     f.FeeToken.Address,
		Fee:        new(big.Int).SetUint64(uint64(fee)),
		Amount0:    trade.InputAmount.Raw(),
		Amount1:    trade.OutputAmount.Raw(),
		Amount0Min: fundingMaxIn(trade),
		Amount1Min: fundingMinOut(trade),
	}
	num, den := price.Numerator(), price.Denominator()

	sorted, err := weth.SortsBefore(f.FeeToken)
	if err != nil {
		return nil, err
	}
	if !sorted {
		params.Token0, params.Token1 = params.Token1, params.Token0
		params.Amount0, params.Amount1 = params.Amount1, params.Amount0
		params.Amount0Min, params.Amount1Min = params.Amount1Min, params.Amount0Min
		num, den = den, num
	}
	if params.SqrtPriceX96, err = EncodeSqrtRatioX96(num, den); err != nil {
		return nil, fmt.Errorf("funding price: %w", err)
	}
	return EncodePlaceLimitOrder(params)
}

func fundingMaxIn(trade *models.Trade) *big.Int {
	if trade.Type == models.ExactInput {
		return trade.InputAmount.Raw()
	}
	return mulDiv(trade.InputAmount.Raw(), new(big.Int).Add(fundingSlippageDen, fundingSlippageNum), fundingSlippageDen)
}

func fundingMinOut(trade *models.Trade) *big.Int {
	if trade.Type == models.ExactOutput {
		return trade.OutputAmount.Raw()
	}
	return mulDiv(trade.OutputAmount.Raw(), fundingSlippageDen, new(big.Int).Add(fundingSlippageDen, fundingSlippageNum))
}

// approveCall is the ERC-20 approval a smart wallet batches ahead of the order.
func approveCall(amount models.CurrencyAmount, spender common.Address) (WalletCall, error) {
	data, err := EncodeApprove(spender, amount.Raw())
	if err != nil {
		return WalletCall{}, err
	}
	return WalletCall{To: amount.Currency.Address, Value: new(big.Int), Data: data}, nil
}

func mulDiv(x, num, den *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	v := new(big.Int).Mul(x, num)
	return v.Quo(v, den)
}
