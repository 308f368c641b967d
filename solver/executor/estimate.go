package executor

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// estimate is the outcome of estimating one candidate call. Exactly one of ok and err is set.
type estimate struct {
	call models.SwapCall
	gas  uint64
	ok   bool
	err  error
}

func callMsg(from common.Address, call models.SwapCall) ethereum.CallMsg {
	to := call.Address
	msg := ethereum.CallMsg{From: from, To: &to, Data: call.Calldata}
	if call.HasValue() {
		msg.Value = call.Value
	}
	return msg
}

// estimateCalls estimates every call in parallel. A failed estimate is retried as an
// eth_call to recover the revert reason.
func (e *Executor) estimateCalls(ctx context.Context, from common.Address, calls []models.SwapCall) []estimate {
	estimates := make([]estimate, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			estimates[i] = e.estimateCall(ctx, from, call)
			return nil
		})
	}
	_ = g.Wait()
	return estimates
}

func (e *Executor) estimateCall(ctx context.Context, from common.Address, call models.SwapCall) estimate {
	msg := callMsg(from, call)
	gas, gasErr := e.backend.EstimateGas(ctx, msg)
	if gasErr == nil {
		return estimate{call: call, gas: gas, ok: true}
	}
	log.Debug().Err(gasErr).Str("to", call.Address.Hex()).Msg("Gas estimate failed, trying eth_call to extract error")

	if _, callErr := e.backend.CallContract(ctx, msg, nil); callErr != nil {
		log.Debug().Err(callErr).Msg("Call threw error")
		return estimate{call: call, err: &SwapError{Message: SwapErrorToUserReadableMessage(callErr), Err: callErr}}
	}
	log.Debug().Err(gasErr).Msg("Unexpected successful call after failed estimate gas")
	return estimate{call: call, err: &SwapError{Message: msgUnexpectedEstimate, Err: gasErr}}
}

// selectCall prefers the last estimated call whose successor, if any, was also
// estimated; then the first estimated call; then the last error. A selected call
// always carries its gas estimate.
func selectCall(estimates []estimate) (estimate, error) {
	for i := len(estimates) - 1; i >= 0; i-- {
		if estimates[i].ok && (i == len(estimates)-1 || estimates[i+1].ok) {
			return estimates[i], nil
		}
	}
	for _, est := range estimates {
		if est.err == nil {
			return est, nil
		}
	}
	for i := len(estimates) - 1; i >= 0; i-- {
		if estimates[i].err != nil {
			return estimate{}, estimates[i].err
		}
	}
	return estimate{}, ErrNoEstimate
}
