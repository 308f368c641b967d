package executor_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
	"github.com/Cogwheel-Validator/spectra-swap/solver/chain"
	"github.com/Cogwheel-Validator/spectra-swap/solver/executor"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var (
	eth  = models.NewNative(1, 18, "ETH", "Ether")
	usdc = models.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")

	limitOrderManager = common.HexToAddress("0xd1fDF0144be118C30a53E1d08Cc1E61d600E508e")
	router            = common.HexToAddress("0x3333333333333333333333333333333333333333")
	callA             = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	callB             = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	callC             = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string  { return e.msg }
func (e *rpcError) ErrorCode() int { return e.code }

type dataError struct {
	msg  string
	data any
	err  error
}

func (e *dataError) Error() string  { return e.msg }
func (e *dataError) ErrorData() any { return e.data }
func (e *dataError) Unwrap() error  { return e.err }

type fakeBackend struct {
	chain.Backend

	mu          sync.Mutex
	estimates   map[common.Address]uint64
	callErrs    map[common.Address]error
	sendErr     error
	sent        []*types.Transaction
	baseFee     *big.Int
	estimateLog []common.Address
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		estimates: map[common.Address]uint64{},
		callErrs:  map[common.Address]error{},
		baseFee:   big.NewInt(10_000_000_000),
	}
}

func (b *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.estimateLog = append(b.estimateLog, *msg.To)
	if gas, ok := b.estimates[*msg.To]; ok {
		return gas, nil
	}
	return 0, errors.New("gas required exceeds allowance")
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return nil, b.callErrs[*msg.To]
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: b.baseFee}, nil
}

type fakeRelayer struct {
	mu       sync.Mutex
	sendErr  error
	sent     []executor.RelayTransaction
	hash     common.Hash
	notFound int
	polls    int
}

func (r *fakeRelayer) SendTransaction(_ context.Context, tx executor.RelayTransaction) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return common.Hash{}, r.sendErr
	}
	r.sent = append(r.sent, tx)
	return r.hash, nil
}

func (r *fakeRelayer) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	if r.notFound < 0 || r.polls <= r.notFound {
		return nil, false, ethereum.NotFound
	}
	return types.NewTx(&types.LegacyTx{}), false, nil
}

func newSigner(t *testing.T) *chain.KeySigner {
	t.Helper()
	s, err := chain.NewKeySigner(testKey)
	assert.NoError(t, err)
	return s
}

func ethTrade(t *testing.T, tradeType models.TradeType) *models.Trade {
	t.Helper()
	in, err := models.FromRawAmount(eth, big.NewInt(1_000_000_000_000_000_000))
	assert.NoError(t, err)
	out := models.MustRawAmount(usdc, 1_800_000_000)
	tr, err := models.NewTrade(tradeType, in, out, []models.Pool{{Token0: usdc, Token1: eth, Fee: models.FeeMedium}})
	assert.NoError(t, err)
	return tr
}

func swapCall(to common.Address, value int64) models.SwapCall {
	return models.SwapCall{Address: to, Calldata: []byte{0xde, 0xad, 0xbe, 0xef}, Value: big.NewInt(value)}
}

func TestExecute_SignerPath(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[limitOrderManager] = 100_000
	recorder := executor.NewMemoryRecorder(10)
	e := executor.NewExecutor(backend, newSigner(t), 1, executor.WithRecorder(recorder))

	hash, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 5)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.NoError(t, err)
	assert.Equal(t, len(backend.sent), 1)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash(), hash)
	assert.Equal(t, tx.Gas(), uint64(120_000))
	assert.Equal(t, *tx.To(), limitOrderManager)
	assert.Equal(t, tx.Value().String(), "5")
	assert.Equal(t, tx.Nonce(), uint64(7))
	assert.Equal(t, tx.Type(), uint8(types.DynamicFeeTxType))
	assert.Equal(t, tx.GasFeeCap().String(), "21000000000")

	recorded, ok := recorder.Get(hash)
	assert.True(t, ok)
	assert.Equal(t, recorded.Info.Type, executor.TransactionTypeSwap)
	assert.Equal(t, recorded.Info.InputCurrencyID, "ETH")
	assert.Equal(t, recorded.Info.InputCurrencyAmountRaw, "1000000000000000000")
	assert.Equal(t, recorded.Info.ExpectedOutputCurrencyAmountRaw, "1800000000")
	assert.Equal(t, recorded.Info.OutputCurrencyID, usdc.Address.Hex())
}

func TestExecute_LegacyChain(t *testing.T) {
	backend := newFakeBackend()
	backend.baseFee = nil
	backend.estimates[limitOrderManager] = 50_000
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.NoError(t, err)
	assert.Equal(t, backend.sent[0].Type(), uint8(types.LegacyTxType))
	assert.Equal(t, backend.sent[0].GasPrice().String(), "2000000000")
}

func TestExecute_RevertReasonIsReadable(t *testing.T) {
	backend := newFakeBackend()
	backend.callErrs[limitOrderManager] = errors.New("execution reverted: STF")
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	var swapErr *executor.SwapError
	assert.True(t, errors.As(err, &swapErr))
	assert.Equal(t, err.Error(), "This transaction will not succeed due to price movement. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.")
	assert.Equal(t, len(backend.sent), 0)
}

func TestExecute_CallSucceedsAfterFailedEstimate(t *testing.T) {
	backend := newFakeBackend()
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.Error(t, err)
	assert.Equal(t, err.Error(), "Unexpected issue with estimating the gas. Please try again.")
}

func TestExecute_Selection(t *testing.T) {
	revert := errors.New("execution reverted: TF")
	cases := []struct {
		name    string
		ok      []common.Address
		want    common.Address
		wantErr bool
	}{
		{"all succeed picks last", []common.Address{callA, callB, callC}, callC, false},
		{"last fails picks the pair before", []common.Address{callA, callB}, callA, false},
		{"only last succeeds", []common.Address{callC}, callC, false},
		{"last succeeds after a failed middle", []common.Address{callA, callC}, callC, false},
		{"none succeed", nil, common.Address{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFakeBackend()
			for _, addr := range []common.Address{callA, callB, callC} {
				backend.callErrs[addr] = revert
			}
			for _, addr := range tc.ok {
				backend.estimates[addr] = 21_000
			}
			e := executor.NewExecutor(backend, newSigner(t), 1)

			_, err := e.Execute(context.Background(), executor.ExecuteParams{
				Calls: []models.SwapCall{swapCall(callA, 0), swapCall(callB, 0), swapCall(callC, 0)},
				Trade: ethTrade(t, models.ExactInput),
			})
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, err.Error(), "The output token cannot be transferred. There may be an issue with the output token. Note: fee on transfer and rebase tokens are incompatible with Kromatika.")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, *backend.sent[0].To(), tc.want)
		})
	}
}

func TestExecute_FirstErrorFreeFallback(t *testing.T) {
	// only A estimates, and its successor does not
	backend := newFakeBackend()
	backend.estimates[callA] = 21_000
	backend.callErrs[callB] = errors.New("execution reverted: STF")
	backend.callErrs[callC] = errors.New("execution reverted: STF")
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(callA, 0), swapCall(callB, 0), swapCall(callC, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.NoError(t, err)
	assert.Equal(t, *backend.sent[0].To(), callA)
}

func TestExecute_SelectedCallIsEstimatedOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[callA] = 40_000
	backend.estimates[callB] = 60_000
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(callA, 0), swapCall(callB, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.NoError(t, err)
	assert.Equal(t, len(backend.estimateLog), 2)
	assert.Equal(t, *backend.sent[0].To(), callB)
	assert.Equal(t, backend.sent[0].Gas(), uint64(72_000))
}

func TestExecute_UserRejection(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[limitOrderManager] = 21_000
	backend.sendErr = &rpcError{code: 4001, msg: "User denied transaction signature"}
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.True(t, errors.Is(err, executor.ErrTransactionRejected))
	assert.Equal(t, err.Error(), "Transaction rejected.")
}

func TestExecute_SendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[limitOrderManager] = 21_000
	backend.sendErr = &rpcError{code: -32000, msg: "nonce too low"}
	e := executor.NewExecutor(backend, newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.Error(t, err)
	assert.Equal(t, err.Error(), `Swap failed: Unknown error: "nonce too low". Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.`)
}

func TestExecute_MissingInputs(t *testing.T) {
	e := executor.NewExecutor(newFakeBackend(), newSigner(t), 1)

	_, err := e.Execute(context.Background(), executor.ExecuteParams{Trade: ethTrade(t, models.ExactInput)})
	assert.True(t, errors.Is(err, executor.ErrMissingInputs))
	assert.Equal(t, e.State(executor.ExecuteParams{}), models.SwapCallbackInvalid)

	noSigner := executor.NewExecutor(newFakeBackend(), nil, 1)
	_, err = noSigner.Execute(context.Background(), executor.ExecuteParams{
		Calls: []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade: ethTrade(t, models.ExactInput),
	})
	assert.True(t, errors.Is(err, executor.ErrNoSigner))

	p := executor.ExecuteParams{Calls: []models.SwapCall{swapCall(limitOrderManager, 0)}, Trade: ethTrade(t, models.ExactInput)}
	assert.Equal(t, e.State(p), models.SwapCallbackValid)
}

func TestExecute_Relay(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[limitOrderManager] = 100_000
	relayer := &fakeRelayer{hash: common.HexToHash("0x01"), notFound: 2}
	recorder := executor.NewMemoryRecorder(10)
	e := executor.NewExecutor(backend, nil, 1,
		executor.WithRecorder(recorder),
		executor.WithRelay(relayer, router, limitOrderManager),
		executor.WithRelayPolling(time.Millisecond, time.Second),
	)
	from := common.HexToAddress("0x4444444444444444444444444444444444444444")

	hash, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls:   []models.SwapCall{swapCall(limitOrderManager, 9)},
		Trade:   ethTrade(t, models.ExactOutput),
		From:    from,
		Gasless: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, hash, relayer.hash)
	assert.Equal(t, relayer.polls, 3)
	assert.Equal(t, len(backend.sent), 0)

	tx := relayer.sent[0]
	assert.Equal(t, tx.From, from)
	assert.Equal(t, tx.To, router)
	assert.Equal(t, uint64(tx.GasLimit), uint64(220_000))
	assert.Equal(t, tx.SignatureType, executor.EIP712SignatureType)
	assert.Equal(t, tx.Value.ToInt().String(), "9")

	args, err := calls.RouterABI.Methods["execute"].Inputs.Unpack(tx.Data[4:])
	assert.NoError(t, err)
	assert.Equal(t, args[0].(common.Address), limitOrderManager)
	assert.DeepEqual(t, args[1].([]byte), []byte{0xde, 0xad, 0xbe, 0xef})

	recorded, ok := recorder.Get(hash)
	assert.True(t, ok)
	assert.Equal(t, recorded.Info.TradeType, models.ExactOutput)
	assert.Equal(t, recorded.Info.OutputCurrencyAmountRaw, "1800000000")
	assert.Equal(t, recorded.Info.ExpectedInputCurrencyAmountRaw, "1000000000000000000")
	assert.Equal(t, recorded.Info.InputCurrencyAmountRaw, "")
}

func TestExecute_RelayTimeout(t *testing.T) {
	backend := newFakeBackend()
	relayer := &fakeRelayer{hash: common.HexToHash("0x02"), notFound: -1}
	e := executor.NewExecutor(backend, nil, 1,
		executor.WithRelay(relayer, router, limitOrderManager),
		executor.WithRelayPolling(time.Millisecond, 20*time.Millisecond),
	)
	backend.estimates[limitOrderManager] = 100_000

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls:   []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade:   ethTrade(t, models.ExactInput),
		From:    common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Gasless: true,
	})
	assert.True(t, errors.Is(err, executor.ErrRelayTimeout))
	// no value is sent for zero value calls
	assert.True(t, relayer.sent[0].Value == nil)
}

func TestExecute_RelayErrorIsSurfaced(t *testing.T) {
	backend := newFakeBackend()
	backend.estimates[limitOrderManager] = 100_000
	relayErr := errors.New("relay unavailable")
	relayer := &fakeRelayer{sendErr: relayErr}
	e := executor.NewExecutor(backend, nil, 1, executor.WithRelay(relayer, router, limitOrderManager))

	_, err := e.Execute(context.Background(), executor.ExecuteParams{
		Calls:   []models.SwapCall{swapCall(limitOrderManager, 0)},
		Trade:   ethTrade(t, models.ExactInput),
		From:    common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Gasless: true,
	})
	assert.True(t, errors.Is(err, relayErr))
	var swapErr *executor.SwapError
	assert.True(t, errors.As(err, &swapErr))
}

func TestSwapErrorToUserReadableMessage(t *testing.T) {
	cases := map[string]string{
		"execution reverted: UniswapV2Router: EXPIRED":                   "The transaction could not be sent because the deadline has passed. Please check that your transaction deadline is not too low.",
		"UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT":                    "This transaction will not succeed either due to price movement or fee on transfer. Try increasing your slippage tolerance.",
		"UniswapV2Router: EXCESSIVE_INPUT_AMOUNT":                        "This transaction will not succeed either due to price movement or fee on transfer. Try increasing your slippage tolerance.",
		"execution reverted: TransferHelper: TRANSFER_FROM_FAILED":       "The input token cannot be transferred. There may be an issue with the input token.",
		"UniswapV2: TRANSFER_FAILED":                                     "The output token cannot be transferred. There may be an issue with the output token.",
		"UniswapV2: K":                                                   "The Uniswap invariant x*y=k was not satisfied by the swap. This usually means one of the tokens you are swapping incorporates custom behavior on transfer.",
		"Too much requested":                                             "This transaction will not succeed due to price movement. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.",
		"TypeError: undefined is not an object (evaluating 'a.b')":       "An error occurred when trying to execute this swap. You may need to increase your slippage tolerance. If that does not work, there may be an incompatibility with the token you are trading. Note: fee on transfer and rebase tokens are incompatible with Kromatika.",
		"execution reverted: LOM: insufficient funding":                  `Unknown error: "LOM: insufficient funding". Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.`,
		"":                                                               "Unknown error. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.",
	}
	for reason, want := range cases {
		assert.Equal(t, executor.SwapErrorToUserReadableMessage(errors.New(reason)), want)
	}
}

func TestSwapErrorToUserReadableMessage_InnermostReasonWins(t *testing.T) {
	wrapped := fmt.Errorf("eth_call: %w", errors.New("execution reverted: STF"))
	assert.Equal(t, executor.SwapErrorToUserReadableMessage(wrapped),
		"This transaction will not succeed due to price movement. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.")

	// Error(string) payload of "Too little received"
	payload := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000013" +
		"546f6f206c6974746c6520726563656976656400000000000000000000000000"
	err := &dataError{msg: "execution reverted", data: payload}
	assert.Equal(t, executor.SwapErrorToUserReadableMessage(err),
		"This transaction will not succeed due to price movement. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.")
}

func TestSwapErrorToUserReadableMessage_DecodedReasonIsKept(t *testing.T) {
	// Error(string) payload of "Too little received" over a cause with its own reason
	payload := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000013" +
		"546f6f206c6974746c6520726563656976656400000000000000000000000000"
	err := fmt.Errorf("estimate: %w", &dataError{
		msg:  "execution reverted",
		data: payload,
		err:  errors.New("execution reverted: TF"),
	})
	assert.Equal(t, executor.SwapErrorToUserReadableMessage(err),
		"This transaction will not succeed due to price movement. Try increasing your slippage tolerance. Note: fee on transfer and rebase tokens are incompatible with Kromatika.")
}

func TestMemoryRecorder_DropsOldest(t *testing.T) {
	r := executor.NewMemoryRecorder(2)
	info := executor.NewSwapTransactionInfo(ethTrade(t, models.ExactInput))
	for i := byte(1); i <= 3; i++ {
		r.AddTransaction(common.Hash{i}, common.Address{}, info)
	}
	txs := r.Transactions()
	assert.Equal(t, len(txs), 2)
	assert.Equal(t, txs[0].Hash, common.Hash{2})
	assert.Equal(t, txs[1].Hash, common.Hash{3})
	_, ok := r.Get(common.Hash{1})
	assert.False(t, ok)
}
