// Package output defines the generated token registry shared by the pathfinder and the
// solver.
package output

// Registry is the top-level generated config.
type Registry struct {
	// Version of the config format
	Version string `json:"version" toml:"version"`

	// When this config was generated
	GeneratedAt string `json:"generated_at" toml:"generated_at"`

	Chains []RegistryChain `json:"chains" toml:"chains"`
}

// RegistryChain is one EVM chain with its contracts and tradable tokens.
type RegistryChain struct {
	ID   uint64 `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`

	NativeSymbol   string `json:"native_symbol" toml:"native_symbol"`
	NativeName     string `json:"native_name" toml:"native_name"`
	NativeDecimals uint8  `json:"native_decimals" toml:"native_decimals"`
	WrappedNative  string `json:"wrapped_native" toml:"wrapped_native"`

	Contracts   RegistryContracts `json:"contracts" toml:"contracts"`
	RPCs        []string          `json:"rpcs" toml:"rpcs"`
	ExplorerURL string            `json:"explorer_url" toml:"explorer_url"`

	Tokens []RegistryToken `json:"tokens" toml:"tokens"`
}

// RegistryContracts are the checksummed contract addresses of a chain.
type RegistryContracts struct {
	LimitOrderManager string `json:"limit_order_manager" toml:"limit_order_manager"`
	Router            string `json:"router,omitempty" toml:"router,omitempty"`
	FeeToken          string `json:"fee_token" toml:"fee_token"`
}

// RegistryToken is a tradable ERC-20 token.
type RegistryToken struct {
	Address     string `json:"address" toml:"address"`
	Name        string `json:"name" toml:"name"`
	Symbol      string `json:"symbol" toml:"symbol"`
	Decimals    uint8  `json:"decimals" toml:"decimals"`
	Icon        string `json:"icon,omitempty" toml:"icon,omitempty"`
	CoinGeckoID string `json:"coingecko_id,omitempty" toml:"coingecko_id,omitempty"`
}
