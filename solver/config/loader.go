package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/oneinch"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
	"github.com/Cogwheel-Validator/spectra-swap/solver/executor"
)

// PrivateKeyEnv holds the signing key. Keys are never read from config files.
const PrivateKeyEnv = "SOLVER_PRIVATE_KEY"

// FileReader defines the interface for reading files
type FileReader interface {
	// ReadFile reads the file at the given path and returns the contents
	ReadFile(path string) ([]byte, error)
}

// DefaultFileReader implements FileReader using os.ReadFile
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// SolverConfigLoader wraps a FileReader to provide dependency injection for config loading
type SolverConfigLoader struct {
	fileReader FileReader
}

// NewSolverConfigLoader creates a loader with the given FileReader
func NewSolverConfigLoader(fileReader FileReader) *SolverConfigLoader {
	return &SolverConfigLoader{fileReader: fileReader}
}

// NewDefaultSolverConfigLoader creates a loader with the default file reader
func NewDefaultSolverConfigLoader() *SolverConfigLoader {
	return NewSolverConfigLoader(&DefaultFileReader{})
}

// LoadSolverConfig loads the solver config from the given path, or from SOLVER_*
// environment variables when the path is nil.
func LoadSolverConfig(configPath *string) (*SolverConfig, error) {
	return NewDefaultSolverConfigLoader().Load(configPath)
}

// Load reads the config file at configPath, or the environment when configPath is nil.
func (cl *SolverConfigLoader) Load(configPath *string) (*SolverConfig, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systmed or other means, so skip error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	var (
		config *SolverConfig
		err    error
	)
	if configPath == nil {
		config, err = loadEnv(v)
	} else {
		config, err = cl.loadFile(v, *configPath)
	}
	if err != nil {
		return nil, err
	}

	config.PrivateKey = strings.TrimPrefix(os.Getenv(PrivateKeyEnv), "0x")
	if err := verifyConfig(config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain_id", uint64(models.Mainnet))
	v.SetDefault("slippage_bps", uint32(calls.DefaultSlippage))
	v.SetDefault("tick_offset", calls.DefaultTickOffset)
	v.SetDefault("relay_poll_interval", executor.DefaultRelayPollInterval)
	v.SetDefault("relay_timeout", executor.DefaultRelayTimeout)
	v.SetDefault("recorder_capacity", executor.DefaultRecorderCapacity)
	v.SetDefault("oneinch_urls", []string{oneinch.DefaultAPIURL})
	v.SetDefault("zerox_urls", []string{zerox.DefaultAPIURL})
}

func loadEnv(v *viper.Viper) (*SolverConfig, error) {
	v.SetEnvPrefix("SOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config SolverConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"chain_id", "rpc_url", "registry_path",
		"slippage_bps", "tick_offset",
		"relay_url", "relay_poll_interval", "relay_timeout",
		"recorder_capacity",
		"oneinch_urls", "zerox_urls", "zerox_api_key",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func (cl *SolverConfigLoader) loadFile(v *viper.Viper, configPath string) (*SolverConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}
	body, err := cl.fileReader.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewBuffer(body)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SolverConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func verifyConfig(config *SolverConfig) error {
	if !models.IsSupportedChain(config.ChainID) {
		return fmt.Errorf("chain_id %d is not supported", config.ChainID)
	}

	if config.RegistryPath == "" {
		return fmt.Errorf("registry_path is required")
	}

	if _, err := url.ParseRequestURI(config.RPCURL); err != nil {
		return fmt.Errorf("rpc_url must be a valid url")
	}

	if config.RelayURL != "" {
		if _, err := url.ParseRequestURI(config.RelayURL); err != nil {
			return fmt.Errorf("relay_url must be a valid url")
		}
		if config.RelayPollInterval <= 0 || config.RelayTimeout < config.RelayPollInterval {
			return fmt.Errorf("relay_timeout must be at least one relay_poll_interval")
		}
	}

	if _, err := calls.NewSlippageTolerance(config.SlippageBps); err != nil {
		return fmt.Errorf("slippage_bps: %w", err)
	}

	if config.TickOffset < 0 {
		return fmt.Errorf("tick_offset must not be negative")
	}

	for name, urls := range map[string][]string{"oneinch_urls": config.OneInchURLs, "zerox_urls": config.ZeroXURLs} {
		for _, u := range urls {
			if _, err := url.ParseRequestURI(u); err != nil {
				return fmt.Errorf("%s contains an invalid url %q", name, u)
			}
		}
	}

	return nil
}
