package calls

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const limitOrderManagerJSON = `[
	{"type":"function","name":"placeLimitOrder","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"_token0","type":"address"},
		{"name":"_token1","type":"address"},
		{"name":"_fee","type":"uint24"},
		{"name":"_sqrtPriceX96","type":"uint160"},
		{"name":"_amount0","type":"uint128"},
		{"name":"_amount1","type":"uint128"},
		{"name":"_amount0Min","type":"uint256"},
		{"name":"_amount1Min","type":"uint256"}]}],
	 "outputs":[{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"addFunding","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"selfPermit","stateMutability":"payable","inputs":[
		{"name":"token","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"deadline","type":"uint256"},
		{"name":"v","type":"uint8"},
		{"name":"r","type":"bytes32"},
		{"name":"s","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"selfPermitAllowed","stateMutability":"payable","inputs":[
		{"name":"token","type":"address"},
		{"name":"nonce","type":"uint256"},
		{"name":"expiry","type":"uint256"},
		{"name":"v","type":"uint8"},
		{"name":"r","type":"bytes32"},
		{"name":"s","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"multicall","stateMutability":"payable","inputs":[{"name":"data","type":"bytes[]"}],"outputs":[{"name":"results","type":"bytes[]"}]},
	{"type":"function","name":"estimateServiceFee","stateMutability":"view","inputs":[
		{"name":"_targetGasPrice","type":"uint256"},
		{"name":"_numberOfOrders","type":"uint256"},
		{"name":"_owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"funding","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc20JSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const argentWalletJSON = `[
	{"type":"function","name":"wc_multiCall","stateMutability":"nonpayable","inputs":[{"name":"_transactions","type":"tuple[]","components":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"}]}],
	 "outputs":[{"name":"","type":"bytes[]"}]}
]`

const routerJSON = `[
	{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"target","type":"address"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]}
]`

var (
	// LimitOrderManagerABI covers the order, funding and permit methods of the limit order manager.
	LimitOrderManagerABI = mustParseABI(limitOrderManagerJSON)
	// ERC20ABI covers approve, allowance and balanceOf.
	ERC20ABI = mustParseABI(erc20JSON)
	// ArgentWalletABI covers the batched call of Argent smart wallets.
	ArgentWalletABI = mustParseABI(argentWalletJSON)
	// RouterABI covers the relay router's execute method.
	RouterABI = mustParseABI(routerJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded abi: %v", err))
	}
	return parsed
}

// LimitOrderParams is the placeLimitOrder argument tuple. Token0 must sort before Token1.
type LimitOrderParams struct {
	Token0       common.Address
	Token1       common.Address
	Fee          *big.Int
	SqrtPriceX96 *big.Int
	Amount0      *big.Int
	Amount1      *big.Int
	Amount0Min   *big.Int
	Amount1Min   *big.Int
}

// WalletCall is one entry of an Argent wc_multiCall batch.
type WalletCall struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// EncodePlaceLimitOrder encodes placeLimitOrder(params).
func EncodePlaceLimitOrder(params LimitOrderParams) ([]byte, error) {
	return pack(LimitOrderManagerABI, "placeLimitOrder", params)
}

// EncodeAddFunding encodes addFunding(amount).
func EncodeAddFunding(amount *big.Int) ([]byte, error) {
	return pack(LimitOrderManagerABI, "addFunding", amount)
}

// EncodeMulticall encodes multicall(data).
func EncodeMulticall(data [][]byte) ([]byte, error) {
	return pack(LimitOrderManagerABI, "multicall", data)
}

// EncodeApprove encodes the ERC-20 approve(spender, amount).
func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return pack(ERC20ABI, "approve", spender, amount)
}

// EncodeWalletMultiCall encodes wc_multiCall(calls).
func EncodeWalletMultiCall(calls []WalletCall) ([]byte, error) {
	return pack(ArgentWalletABI, "wc_multiCall", calls)
}

// EncodeRouterExecute encodes execute(target, data) on the relay router.
func EncodeRouterExecute(target common.Address, data []byte) ([]byte, error) {
	return pack(RouterABI, "execute", target, data)
}

func pack(contract abi.ABI, method string, args ...any) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	return data, nil
}
