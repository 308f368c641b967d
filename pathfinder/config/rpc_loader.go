package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/oneinch"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
)

// DefaultPort is the port the companion service listens on when none is configured.
const DefaultPort = 4000

// LoadRPCPathfinderConfig loads the pathfinder config from the given path, or from
// PATHFINDER_* environment variables when the path is nil.
func LoadRPCPathfinderConfig(configPath *string) (*RPCPathfinderConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}

	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("chain_id", uint64(models.Mainnet))
	v.SetDefault("oneinch_urls", []string{oneinch.DefaultAPIURL})
	v.SetDefault("zerox_urls", []string{zerox.DefaultAPIURL})
}

func loadEnv(v *viper.Viper) (*RPCPathfinderConfig, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systmed or other means, so skip error
	_ = godotenv.Load()
	v.SetEnvPrefix("PATHFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config RPCPathfinderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "use_otlp_traces", "otlp_traces_url", "trace_sample_ratio",
		"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
		"enable_logs", "use_otlp_logs", "otlp_logs_url",
		"insecure_otlp", "development_mode",
		"chain_id", "registry_path", "oneinch_urls", "zerox_urls", "zerox_api_key",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*RPCPathfinderConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config RPCPathfinderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyConfig(config *RPCPathfinderConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if !models.IsSupportedChain(config.ChainID) {
		return fmt.Errorf("chain_id %d is not supported", config.ChainID)
	}

	if config.TraceSampleRatio < 0 || config.TraceSampleRatio > 1 {
		return fmt.Errorf("trace_sample_ratio must be between 0 and 1")
	}

	for name, urls := range map[string][]string{"oneinch_urls": config.OneInchURLs, "zerox_urls": config.ZeroXURLs} {
		if len(urls) == 0 {
			return fmt.Errorf("%s is required", name)
		}
		for _, u := range urls {
			if _, err := url.ParseRequestURI(u); err != nil {
				return fmt.Errorf("%s contains an invalid url %q", name, u)
			}
		}
	}

	return nil
}
