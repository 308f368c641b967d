// Package executor submits built limit order calls: it estimates every candidate, picks
// the one to send, dispatches it through a signer or a gasless relay and records it.
package executor

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/chain"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "executor").Logger()
}

// ExecuteParams is one user initiated swap.
type ExecuteParams struct {
	Calls []models.SwapCall
	Trade *models.Trade
	// From defaults to the signer's address.
	From common.Address
	// Gasless sends the call through the relay instead of the signer.
	Gasless bool
}

// Executor submits swaps for one chain.
type Executor struct {
	backend  chain.Backend
	signer   chain.Signer
	chainID  *big.Int
	recorder Recorder

	relayer           Relayer
	router            common.Address
	limitOrderManager common.Address
	pollInterval      time.Duration
	relayTimeout      time.Duration

	busy atomic.Bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithRecorder replaces the default in-memory recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) {
		e.recorder = r
	}
}

// WithRelay enables gasless execution through router, which forwards to limitOrderManager.
func WithRelay(relayer Relayer, router, limitOrderManager common.Address) Option {
	return func(e *Executor) {
		e.relayer = relayer
		e.router = router
		e.limitOrderManager = limitOrderManager
	}
}

// WithRelayPolling sets how often and how long a relayed transaction is polled.
func WithRelayPolling(interval, timeout time.Duration) Option {
	return func(e *Executor) {
		e.pollInterval = interval
		e.relayTimeout = timeout
	}
}

// NewExecutor creates an executor. signer may be nil when only gasless swaps are sent.
func NewExecutor(backend chain.Backend, signer chain.Signer, chainID uint64, opts ...Option) *Executor {
	e := &Executor{
		backend:      backend,
		signer:       signer,
		chainID:      new(big.Int).SetUint64(chainID),
		recorder:     NewMemoryRecorder(DefaultRecorderCapacity),
		pollInterval: DefaultRelayPollInterval,
		relayTimeout: DefaultRelayTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports whether p can be executed.
func (e *Executor) State(p ExecuteParams) models.SwapCallbackState {
	if p.Trade == nil || len(p.Calls) == 0 {
		return models.SwapCallbackInvalid
	}
	if _, err := e.sender(p); err != nil {
		return models.SwapCallbackInvalid
	}
	return models.SwapCallbackValid
}

// Execute estimates the candidate calls, sends the selected one and returns its hash.
// Only one swap per executor is submitted at a time.
func (e *Executor) Execute(ctx context.Context, p ExecuteParams) (common.Hash, error) {
	if p.Trade == nil || len(p.Calls) == 0 {
		return common.Hash{}, ErrMissingInputs
	}
	from, err := e.sender(p)
	if err != nil {
		return common.Hash{}, err
	}
	if !e.busy.CompareAndSwap(false, true) {
		return common.Hash{}, ErrSwapInProgress
	}
	defer e.busy.Store(false)

	best, err := selectCall(e.estimateCalls(ctx, from, p.Calls))
	if err != nil {
		return common.Hash{}, err
	}

	var hash common.Hash
	if p.Gasless {
		hash, err = e.relay(ctx, from, best)
	} else {
		hash, err = e.send(ctx, from, best)
	}
	if err != nil {
		return common.Hash{}, dispatchError(err)
	}

	e.recorder.AddTransaction(hash, from, NewSwapTransactionInfo(p.Trade))
	return hash, nil
}

func (e *Executor) sender(p ExecuteParams) (common.Address, error) {
	if p.Gasless && e.relayer == nil {
		return common.Address{}, ErrNoRelayer
	}
	if p.From != (common.Address{}) {
		if !p.Gasless && (e.signer == nil || e.signer.Address() != p.From) {
			return common.Address{}, fmt.Errorf("%w for %s", ErrNoSigner, p.From.Hex())
		}
		return p.From, nil
	}
	if e.signer == nil {
		return common.Address{}, ErrNoSigner
	}
	return e.signer.Address(), nil
}

// send signs and submits the call as an EIP-1559 transaction, or a legacy one on chains
// without a base fee.
func (e *Executor) send(ctx context.Context, from common.Address, est estimate) (common.Hash, error) {
	call := est.call
	gas := CalculateGasMargin(est.gas)

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	head, err := e.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get latest header: %w", err)
	}
	value := new(big.Int)
	if call.HasValue() {
		value = new(big.Int).Set(call.Value)
	}
	to := call.Address

	var txData types.TxData
	if head.BaseFee != nil {
		tip, err := e.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		txData = &types.DynamicFeeTx{
			ChainID:   e.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      call.Calldata,
		}
	} else {
		gasPrice, err := e.backend.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
		}
		txData = &types.LegacyTx{Nonce: nonce, GasPrice: gasPrice, Gas: gas, To: &to, Value: value, Data: call.Calldata}
	}

	signed, err := e.signer.SignTx(types.NewTx(txData), e.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	log.Info().
		Str("hash", signed.Hash().Hex()).
		Str("to", to.Hex()).
		Uint64("gas", gas).
		Uint64("nonce", nonce).
		Msg("Swap transaction submitted")
	return signed.Hash(), nil
}
