// Package input defines the human-readable chain configuration that operators write.
// One TOML file describes one EVM chain: its endpoints, the deployed limit order
// contracts and the tokens offered for trading. The config_manager turns these files
// into the generated registry read by the pathfinder and the solver.
package input

// ChainInput is the human-readable chain configuration.
// This is parsed from TOML files in the chain_configs/ directory.
type ChainInput struct {
	Chain  ChainMeta   `toml:"chain"`
	Tokens []TokenMeta `toml:"token"`
}

// ChainMeta contains the basic chain identification and metadata.
type ChainMeta struct {
	// Required: Human-readable name (e.g., "Ethereum", "Optimism")
	Name string `toml:"name"`

	// Required: EVM chain ID (e.g., 1, 10, 137)
	ID uint64 `toml:"id"`

	// Required: Chain type - currently only "evm" is supported
	Type string `toml:"type"`

	// Required: Native coin metadata
	NativeSymbol   string `toml:"native_symbol"`
	NativeName     string `toml:"native_name"`
	NativeDecimals int    `toml:"native_decimals"`

	// Required: Address of the wrapped native token (WETH, WMATIC...)
	WrappedNative string `toml:"wrapped_native"`

	// Required: Block explorer URL for this chain
	ExplorerURL string `toml:"explorer_url"`

	// JSON-RPC endpoints
	RPCs []APIEndpoint `toml:"rpcs"`

	// Required: Deployed contracts used to place orders
	Contracts ContractsMeta `toml:"contracts"`

	// Optional: Uniswap-style token list merged into the configured tokens.
	// Anything go-getter understands works here (https, git, s3...).
	TokenListURL string `toml:"token_list_url,omitempty"`
}

// ContractsMeta lists the contracts the solver talks to.
type ContractsMeta struct {
	// Required: limit order manager (placeLimitOrder, addFunding, selfPermit, multicall)
	LimitOrderManager string `toml:"limit_order_manager"`

	// Optional: relay router used by the gasless execution path
	Router string `toml:"router,omitempty"`

	// Required: token the service fee is paid in (KROM)
	FeeToken string `toml:"fee_token"`
}

// APIEndpoint represents a JSON-RPC endpoint.
type APIEndpoint struct {
	// Required: Full URL of the endpoint
	URL string `toml:"url"`

	// Optional: Provider name (e.g., "Cogwheel", "Infura")
	Provider string `toml:"provider,omitempty"`
}

// TokenMeta contains information about an ERC-20 token on this chain.
//
//	[[token]]
//	address = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
//	name = "USD Coin"
//	symbol = "USDC"
//	decimals = 6
//	icon = "https://example.com/usdc.png"
type TokenMeta struct {
	// Required: checksummed or lower-case hex address
	Address string `toml:"address"`

	// Required: Human-readable name (e.g., "USD Coin")
	Name string `toml:"name"`

	// Required: Human recognizable symbol (e.g., "USDC")
	Symbol string `toml:"symbol"`

	// Required: ERC-20 decimals
	Decimals int `toml:"decimals"`

	// Optional: URL or path to the token icon
	Icon string `toml:"icon,omitempty"`

	// Optional: CoinGecko ID for price data
	CoinGeckoID string `toml:"coingecko_id,omitempty"`
}
