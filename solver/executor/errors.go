package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// userRejectedCode is the EIP-1193 error code for a request the user declined.
const userRejectedCode = 4001

const (
	msgUnexpectedEstimate = "Unexpected issue with estimating the gas. Please try again."
	msgNoEstimate         = "Unexpected error. Could not estimate gas for the swap."
	msgMissingInputs      = "Missing dependencies"

	incompatibleTokensNote = "Note: fee on transfer and rebase tokens are incompatible with Kromatika."
	revertPrefix           = "execution reverted: "
)

var (
	ErrTransactionRejected = errors.New("Transaction rejected.")
	ErrRelayTimeout        = errors.New("relayed transaction was not found before the timeout")
	ErrSwapInProgress      = errors.New("a swap is already being submitted")
	ErrNoSigner            = errors.New("no signer configured")
	ErrNoRelayer           = errors.New("no relayer configured")
	ErrMissingInputs       = errors.New(msgMissingInputs)
	ErrNoEstimate          = errors.New(msgNoEstimate)
)

// SwapError carries the message shown to the user and the error it was derived from.
type SwapError struct {
	Message string
	Err     error
}

func (e *SwapError) Error() string {
	return e.Message
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// revertReason digs the revert reason out of an RPC error. The first ABI encoded
// Error(string) payload found in the chain wins; without one the innermost message does.
func revertReason(err error) string {
	var reason string
	for ; err != nil; err = errors.Unwrap(err) {
		if dataErr, ok := err.(rpc.DataError); ok {
			if decoded, ok := decodeRevertData(dataErr.ErrorData()); ok {
				return decoded
			}
		}
		reason = err.Error()
	}
	return strings.TrimPrefix(reason, revertPrefix)
}

func decodeRevertData(data any) (string, bool) {
	s, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}

// SwapErrorToUserReadableMessage maps a failed call to a short sentence for the user.
func SwapErrorToUserReadableMessage(err error) string {
	reason := revertReason(err)

	switch reason {
	case "UniswapV2Router: EXPIRED":
		return "The transaction could not be sent because the deadline has passed. Please check that your transaction deadline is not too low."
	case "UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT", "UniswapV2Router: EXCESSIVE_INPUT_AMOUNT":
		return "This transaction will not succeed either due to price movement or fee on transfer. Try increasing your slippage tolerance."
	case "TransferHelper: TRANSFER_FROM_FAILED":
		return "The input token cannot be transferred. There may be an issue with the input token."
	case "UniswapV2: TRANSFER_FAILED":
		return "The output token cannot be transferred. There may be an issue with the output token."
	case "UniswapV2: K":
		return "The Uniswap invariant x*y=k was not satisfied by the swap. This usually means one of the tokens you are swapping incorporates custom behavior on transfer."
	case "Too little received", "Too much requested", "STF":
		return "This transaction will not succeed due to price movement. Try increasing your slippage tolerance. " + incompatibleTokensNote
	case "TF":
		return "The output token cannot be transferred. There may be an issue with the output token. " + incompatibleTokensNote
	}

	if strings.Contains(reason, "undefined is not an object") {
		log.Error().Err(err).Str("reason", reason).Msg("Swap failed with an incompatible token")
		return "An error occurred when trying to execute this swap. You may need to increase your slippage tolerance. If that does not work, there may be an incompatibility with the token you are trading. " + incompatibleTokensNote
	}
	if reason != "" {
		return fmt.Sprintf("Unknown error: \"%s\". Try increasing your slippage tolerance. %s", reason, incompatibleTokensNote)
	}
	return "Unknown error. Try increasing your slippage tolerance. " + incompatibleTokensNote
}

// dispatchError maps a failed submission: a declined request becomes
// ErrTransactionRejected, anything else a SwapError.
func dispatchError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return ErrTransactionRejected
	}
	log.Error().Err(err).Msg("Swap failed")
	return &SwapError{Message: "Swap failed: " + SwapErrorToUserReadableMessage(err), Err: err}
}
