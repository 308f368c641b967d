package config

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/output"
)

// LoadTokenRegistry loads the generated token registry and checks that it describes the
// chain the service quotes on.
func LoadTokenRegistry(filePath string, chainID uint64) (*output.Registry, error) {
	registry, err := output.LoadRegistry(filePath)
	if err != nil {
		return nil, err
	}

	chain, ok := registry.Chain(chainID)
	if !ok {
		return nil, fmt.Errorf("registry %s has no chain %d", filePath, chainID)
	}
	if len(chain.Tokens) == 0 {
		return nil, fmt.Errorf("registry %s lists no tokens for chain %d", filePath, chainID)
	}

	return registry, nil
}
