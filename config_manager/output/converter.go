package output

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/input"
)

// RegistryVersion is the generated format version.
const RegistryVersion = "1.0.0"

// Converter turns validated chain inputs into the generated registry.
type Converter struct {
	now func() time.Time
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithClock fixes the generation timestamp.
func WithClock(now func() time.Time) ConverterOption {
	return func(c *Converter) {
		c.now = now
	}
}

// NewConverter creates a converter.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert builds the registry. Chains are sorted by id and addresses are checksummed.
func (c *Converter) Convert(chains map[uint64]*input.ChainInput) *Registry {
	registry := &Registry{
		Version:     RegistryVersion,
		GeneratedAt: c.now().UTC().Format(time.RFC3339),
		Chains:      make([]RegistryChain, 0, len(chains)),
	}

	for _, in := range chains {
		registry.Chains = append(registry.Chains, convertChain(in))
	}
	sort.Slice(registry.Chains, func(i, j int) bool {
		return registry.Chains[i].ID < registry.Chains[j].ID
	})
	return registry
}

func convertChain(in *input.ChainInput) RegistryChain {
	chain := in.Chain
	out := RegistryChain{
		ID:             chain.ID,
		Name:           chain.Name,
		NativeSymbol:   chain.NativeSymbol,
		NativeName:     chain.NativeName,
		NativeDecimals: uint8(chain.NativeDecimals),
		WrappedNative:  checksum(chain.WrappedNative),
		Contracts: RegistryContracts{
			LimitOrderManager: checksum(chain.Contracts.LimitOrderManager),
			Router:            checksum(chain.Contracts.Router),
			FeeToken:          checksum(chain.Contracts.FeeToken),
		},
		ExplorerURL: chain.ExplorerURL,
		RPCs:        make([]string, 0, len(chain.RPCs)),
		Tokens:      make([]RegistryToken, 0, len(in.Tokens)),
	}
	for _, rpc := range chain.RPCs {
		out.RPCs = append(out.RPCs, rpc.URL)
	}
	for _, token := range in.Tokens {
		out.Tokens = append(out.Tokens, RegistryToken{
			Address:     checksum(token.Address),
			Name:        token.Name,
			Symbol:      token.Symbol,
			Decimals:    uint8(token.Decimals),
			Icon:        token.Icon,
			CoinGeckoID: token.CoinGeckoID,
		})
	}
	return out
}

func checksum(addr string) string {
	if addr == "" {
		return ""
	}
	return common.HexToAddress(addr).Hex()
}
