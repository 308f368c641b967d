package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
)

const (
	// EIP712SignatureType asks the relay to collect an EIP-712 signature from the user.
	EIP712SignatureType = "EIP712_SIGN"

	DefaultRelayPollInterval = 2 * time.Second
	DefaultRelayTimeout      = 2 * time.Minute
)

// RelayTransaction is the eth_sendTransaction payload of a gasless relay.
type RelayTransaction struct {
	From          common.Address `json:"from"`
	To            common.Address `json:"to"`
	Data          hexutil.Bytes  `json:"data"`
	GasLimit      hexutil.Uint64 `json:"gasLimit"`
	SignatureType string         `json:"signatureType"`
	Value         *hexutil.Big   `json:"value,omitempty"`
}

// Relayer submits transactions on the user's behalf and reports them once known.
type Relayer interface {
	SendTransaction(ctx context.Context, tx RelayTransaction) (common.Hash, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// RPCRelayer talks to a relay provider over JSON-RPC.
type RPCRelayer struct {
	client *rpc.Client
	eth    *ethclient.Client
}

// DialRelayer connects to the relay provider at rawURL.
func DialRelayer(ctx context.Context, rawURL string) (*RPCRelayer, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}
	return NewRPCRelayer(client), nil
}

// NewRPCRelayer wraps an existing RPC client.
func NewRPCRelayer(client *rpc.Client) *RPCRelayer {
	return &RPCRelayer{client: client, eth: ethclient.NewClient(client)}
}

func (r *RPCRelayer) SendTransaction(ctx context.Context, tx RelayTransaction) (common.Hash, error) {
	var hash common.Hash
	if err := r.client.CallContext(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (r *RPCRelayer) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	return r.eth.TransactionByHash(ctx, hash)
}

func (r *RPCRelayer) Close() {
	r.client.Close()
}

// relay sends the chosen call through the router via the relay provider and waits until
// the provider knows the transaction.
func (e *Executor) relay(ctx context.Context, from common.Address, est estimate) (common.Hash, error) {
	if e.relayer == nil {
		return common.Hash{}, ErrNoRelayer
	}
	data, err := e.routerCalldata(est.call)
	if err != nil {
		return common.Hash{}, err
	}
	tx := RelayTransaction{
		From:          from,
		To:            e.router,
		Data:          data,
		GasLimit:      hexutil.Uint64(relayGasLimit(est.gas)),
		SignatureType: EIP712SignatureType,
	}
	if est.call.HasValue() {
		tx.Value = (*hexutil.Big)(est.call.Value)
	}

	hash, err := e.relayer.SendTransaction(ctx, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("relay rejected transaction: %w", err)
	}
	log.Info().Str("hash", hash.Hex()).Msg("Relayed transaction submitted")

	if err := e.waitForRelay(ctx, hash); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (e *Executor) routerCalldata(call models.SwapCall) ([]byte, error) {
	return calls.EncodeRouterExecute(e.limitOrderManager, call.Calldata)
}

// waitForRelay polls the relay until it returns the transaction or the timeout passes.
func (e *Executor) waitForRelay(ctx context.Context, hash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, e.relayTimeout)
	defer cancel()
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		tx, _, err := e.relayer.TransactionByHash(ctx, hash)
		switch {
		case err == nil && tx != nil:
			return nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			return fmt.Errorf("failed to poll relayed transaction: %w", err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrRelayTimeout, hash.Hex())
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
