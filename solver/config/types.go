package config

import "time"

type SolverConfig struct {
	// Chain the orders are placed on
	ChainID uint64 `toml:"chain_id" mapstructure:"chain_id"`
	RPCURL  string `toml:"rpc_url" mapstructure:"rpc_url"`

	// Generated token registry with the chain contracts
	RegistryPath string `toml:"registry_path" mapstructure:"registry_path"`

	// Order defaults
	SlippageBps uint32 `toml:"slippage_bps" mapstructure:"slippage_bps"`
	TickOffset  int32  `toml:"tick_offset" mapstructure:"tick_offset"`

	// Gasless relay, optional
	RelayURL          string        `toml:"relay_url" mapstructure:"relay_url"`
	RelayPollInterval time.Duration `toml:"relay_poll_interval" mapstructure:"relay_poll_interval"`
	RelayTimeout      time.Duration `toml:"relay_timeout" mapstructure:"relay_timeout"`

	RecorderCapacity int `toml:"recorder_capacity" mapstructure:"recorder_capacity"`

	// Quote providers. The first URL is primary, the rest are failover backups.
	OneInchURLs []string `toml:"oneinch_urls" mapstructure:"oneinch_urls"`
	ZeroXURLs   []string `toml:"zerox_urls" mapstructure:"zerox_urls"`
	ZeroXAPIKey string   `toml:"zerox_api_key" mapstructure:"zerox_api_key"`

	// PrivateKey is only ever read from SOLVER_PRIVATE_KEY, never from a file.
	PrivateKey string `toml:"-" mapstructure:"-"`
}
