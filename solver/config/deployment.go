package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/output"
	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// Deployment is the chain setup orders are placed against, taken from the token registry.
type Deployment struct {
	ChainID           uint64
	LimitOrderManager common.Address
	// Router is zero when the chain has no relay router.
	Router        common.Address
	FeeToken      models.Currency
	Native        models.Currency
	// Stablecoin is the zero Currency when the chain lists no dollar stablecoin.
	Stablecoin    models.Currency
	WrappedNative map[uint64]models.Currency
	ExplorerURL   string

	registry *output.Registry
}

// LoadDeployment loads the registry at registryPath and extracts chainID's contracts.
func LoadDeployment(registryPath string, chainID uint64) (*Deployment, error) {
	registry, err := output.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	return NewDeployment(registry, chainID)
}

// NewDeployment extracts chainID's contracts from a loaded registry.
func NewDeployment(registry *output.Registry, chainID uint64) (*Deployment, error) {
	chain, ok := registry.Chain(chainID)
	if !ok {
		return nil, fmt.Errorf("registry has no chain %d", chainID)
	}
	if !common.IsHexAddress(chain.Contracts.LimitOrderManager) {
		return nil, fmt.Errorf("chain %d has no valid limit order manager", chainID)
	}
	feeToken, ok := registry.FeeToken(chainID)
	if !ok {
		return nil, fmt.Errorf("chain %d has no fee token", chainID)
	}
	native, _ := registry.Native(chainID)

	d := &Deployment{
		ChainID:           chainID,
		LimitOrderManager: common.HexToAddress(chain.Contracts.LimitOrderManager),
		FeeToken:          feeToken,
		Native:            native,
		WrappedNative:     registry.WrappedNatives(),
		ExplorerURL:       chain.ExplorerURL,
		registry:          registry,
	}
	if stable, ok := registry.Stablecoin(chainID); ok {
		d.Stablecoin = stable
	}
	if common.IsHexAddress(chain.Contracts.Router) {
		d.Router = common.HexToAddress(chain.Contracts.Router)
	}
	return d, nil
}

// Currency resolves a hex address, the native placeholder or a listed token symbol.
func (d *Deployment) Currency(s string) (models.Currency, error) {
	if strings.EqualFold(s, d.Native.Symbol) {
		return d.Native, nil
	}
	addr, native, err := models.ParseCurrencyAddress(s)
	if err == nil {
		if native {
			return d.Native, nil
		}
		if currency, ok := d.registry.Currency(d.ChainID, addr); ok {
			return currency, nil
		}
		return models.Currency{}, fmt.Errorf("token %s is not listed on chain %d", addr.Hex(), d.ChainID)
	}

	chain, _ := d.registry.Chain(d.ChainID)
	for _, token := range chain.Tokens {
		if strings.EqualFold(token.Symbol, s) {
			return models.NewToken(d.ChainID, common.HexToAddress(token.Address), token.Decimals, token.Symbol, token.Name), nil
		}
	}
	return models.Currency{}, fmt.Errorf("unknown token %q on chain %d", s, d.ChainID)
}

// BadRecipients lists the contracts orders must never pay out to.
func (d *Deployment) BadRecipients() []common.Address {
	bad := []common.Address{d.LimitOrderManager}
	if d.Router != (common.Address{}) {
		bad = append(bad, d.Router)
	}
	return bad
}
