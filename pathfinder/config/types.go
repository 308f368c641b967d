package config

type RPCPathfinderConfig struct {
	// http server configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName      string  `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion   string  `toml:"service_version" mapstructure:"service_version"`
	Environment      string  `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing    bool    `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces    bool    `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL    string  `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	TraceSampleRatio float64 `toml:"trace_sample_ratio" mapstructure:"trace_sample_ratio"`
	EnableMetrics    bool    `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus    bool    `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics   bool    `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL   string  `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs       bool    `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs      bool    `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL      string  `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Chain the service quotes on
	ChainID uint64 `toml:"chain_id" mapstructure:"chain_id"`

	// Generated token registry, optional
	RegistryPath string `toml:"registry_path" mapstructure:"registry_path"`

	// Quote providers. The first URL is primary, the rest are failover backups.
	OneInchURLs []string `toml:"oneinch_urls" mapstructure:"oneinch_urls"`
	ZeroXURLs   []string `toml:"zerox_urls" mapstructure:"zerox_urls"`
	ZeroXAPIKey string   `toml:"zerox_api_key" mapstructure:"zerox_api_key"`
}
