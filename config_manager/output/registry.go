package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// LoadRegistry loads a generated registry from a file.
// Supports both TOML and JSON formats based on file extension.
func LoadRegistry(filePath string) (*Registry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var registry Registry

	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &registry); err != nil {
			return nil, fmt.Errorf("failed to parse JSON registry: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &registry); err != nil {
			return nil, fmt.Errorf("failed to parse TOML registry: %w", err)
		}
	}

	if len(registry.Chains) == 0 {
		return nil, fmt.Errorf("no chains in registry %s", filePath)
	}
	return &registry, nil
}

// Chain returns the chain with the given id.
func (r *Registry) Chain(chainID uint64) (*RegistryChain, bool) {
	for i := range r.Chains {
		if r.Chains[i].ID == chainID {
			return &r.Chains[i], true
		}
	}
	return nil, false
}

// Currency looks up a token by address.
func (r *Registry) Currency(chainID uint64, address common.Address) (models.Currency, bool) {
	chain, ok := r.Chain(chainID)
	if !ok {
		return models.Currency{}, false
	}
	for _, token := range chain.Tokens {
		if common.HexToAddress(token.Address) == address {
			return models.NewToken(chainID, address, token.Decimals, token.Symbol, token.Name), true
		}
	}
	return models.Currency{}, false
}

// Native returns the native coin of a chain.
func (r *Registry) Native(chainID uint64) (models.Currency, bool) {
	chain, ok := r.Chain(chainID)
	if !ok {
		return models.Currency{}, false
	}
	return models.NewNative(chainID, chain.NativeDecimals, chain.NativeSymbol, chain.NativeName), true
}

// WrappedNatives maps every chain id to its wrapped native token.
func (r *Registry) WrappedNatives() map[uint64]models.Currency {
	wrapped := make(map[uint64]models.Currency, len(r.Chains))
	for _, chain := range r.Chains {
		addr := common.HexToAddress(chain.WrappedNative)
		if currency, ok := r.Currency(chain.ID, addr); ok {
			wrapped[chain.ID] = currency
			continue
		}
		wrapped[chain.ID] = models.NewToken(chain.ID, addr, chain.NativeDecimals, "W"+chain.NativeSymbol, "Wrapped "+chain.NativeName)
	}
	return wrapped
}

// FeeToken returns the service fee token of a chain.
func (r *Registry) FeeToken(chainID uint64) (models.Currency, bool) {
	chain, ok := r.Chain(chainID)
	if !ok || chain.Contracts.FeeToken == "" {
		return models.Currency{}, false
	}
	addr := common.HexToAddress(chain.Contracts.FeeToken)
	if currency, ok := r.Currency(chainID, addr); ok {
		return currency, true
	}
	return models.NewToken(chainID, addr, 18, "KROM", "Kromatika"), true
}

// StablecoinSymbols are the dollar stablecoins used for USD valuation, most preferred first.
var StablecoinSymbols = []string{"USDC", "USDT", "DAI"}

// Stablecoin returns the preferred dollar stablecoin listed on a chain.
func (r *Registry) Stablecoin(chainID uint64) (models.Currency, bool) {
	chain, ok := r.Chain(chainID)
	if !ok {
		return models.Currency{}, false
	}
	for _, symbol := range StablecoinSymbols {
		for _, token := range chain.Tokens {
			if strings.EqualFold(token.Symbol, symbol) {
				return models.NewToken(chainID, common.HexToAddress(token.Address), token.Decimals, token.Symbol, token.Name), true
			}
		}
	}
	return models.Currency{}, false
}
