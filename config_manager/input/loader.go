package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// Loader loads and parses human-readable chain configuration files.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadChainConfig loads a single chain configuration from a TOML file.
func (l *Loader) LoadChainConfig(filePath string) (*ChainInput, error) {
	if !strings.HasSuffix(filePath, ".toml") {
		return nil, fmt.Errorf("config file must be a .toml file: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var config ChainInput
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return &config, nil
}

// LoadAllConfigs loads all chain configurations from a directory.
// Returns a map of chain ID to ChainInput. Broken files are skipped with a warning.
func (l *Loader) LoadAllConfigs(dirPath string) (map[uint64]*ChainInput, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", dirPath, err)
	}

	configs := make(map[uint64]*ChainInput)
	var errs []error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		config, err := l.LoadChainConfig(filePath)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}

		if config.Chain.ID == 0 {
			errs = append(errs, fmt.Errorf("%s: missing chain.id", entry.Name()))
			continue
		}

		if _, exists := configs[config.Chain.ID]; exists {
			errs = append(errs, fmt.Errorf("%s: duplicate chain ID %d", entry.Name(), config.Chain.ID))
			continue
		}

		configs[config.Chain.ID] = config
	}

	for _, e := range errs {
		log.Warn().Err(e).Msg("Skipping chain config")
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("no valid chain configurations found in %s", dirPath)
	}

	return configs, nil
}

// GetTokenListURLs extracts the remote token lists referenced by the configs, keyed by
// chain ID.
func (l *Loader) GetTokenListURLs(configs map[uint64]*ChainInput) map[uint64]string {
	urls := make(map[uint64]string)
	for id, config := range configs {
		if config.Chain.TokenListURL != "" {
			urls[id] = config.Chain.TokenListURL
		}
	}
	return urls
}
