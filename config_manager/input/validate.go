package input

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// ValidationError contains details about a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of validating a chain configuration.
type ValidationResult struct {
	ChainID  uint64
	IsValid  bool
	Errors   []error
	Warnings []string
}

// ChainIDReader reports the chain id served by an RPC endpoint.
type ChainIDReader func(ctx context.Context, rpcURL string) (uint64, error)

// Validator validates human-readable chain configurations.
// Network checks are skipped by default. Use WithSkipNetworkCheck(false) to make sure
// at least one RPC endpoint answers with the declared chain id.
type Validator struct {
	skipNetCheck bool
	timeout      time.Duration
	readChainID  ChainIDReader
}

// ValidatorOption configures the validator.
type ValidatorOption func(*Validator)

// WithSkipNetworkCheck disables network reachability checks.
func WithSkipNetworkCheck(skip bool) ValidatorOption {
	return func(v *Validator) {
		v.skipNetCheck = skip
	}
}

// WithChainIDReader replaces the ethclient based chain id lookup.
func WithChainIDReader(reader ChainIDReader) ValidatorOption {
	return func(v *Validator) {
		v.readChainID = reader
	}
}

// NewValidator creates a new configuration validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		skipNetCheck: true,
		timeout:      10 * time.Second,
		readChainID:  dialChainID,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SupportedChainTypes lists the chain types we currently support.
var SupportedChainTypes = []string{"evm"}

// Validate validates a single chain configuration.
func (v *Validator) Validate(config *ChainInput) *ValidationResult {
	result := &ValidationResult{
		ChainID: config.Chain.ID,
		IsValid: true,
	}

	v.validateRequired(config, result)
	v.validateTypes(config, result)
	v.validateLogic(config, result)

	if !v.skipNetCheck {
		v.validateNetwork(config, result)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// ValidateAll validates all configurations and returns a map of results.
func (v *Validator) ValidateAll(configs map[uint64]*ChainInput) (map[uint64]*ValidationResult, error) {
	results := make(map[uint64]*ValidationResult)
	var hasErrors bool

	for chainID, config := range configs {
		result := v.Validate(config)
		results[chainID] = result
		if !result.IsValid {
			hasErrors = true
		}
	}

	if hasErrors {
		return results, errors.New("one or more configurations failed validation")
	}
	return results, nil
}

func (v *Validator) validateRequired(config *ChainInput, result *ValidationResult) {
	chain := config.Chain

	if chain.Name == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.name", "is required"})
	}
	if chain.ID == 0 {
		result.Errors = append(result.Errors, &ValidationError{"chain.id", "is required"})
	}
	if chain.Type == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.type", "is required"})
	}
	if chain.NativeSymbol == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.native_symbol", "is required"})
	}
	if chain.WrappedNative == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.wrapped_native", "is required"})
	}
	if chain.ExplorerURL == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.explorer_url", "is required"})
	}
	if len(chain.RPCs) == 0 {
		result.Errors = append(result.Errors, &ValidationError{"chain.rpcs", "at least one RPC endpoint is required"})
	}
	if chain.Contracts.LimitOrderManager == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.contracts.limit_order_manager", "is required"})
	}
	if chain.Contracts.FeeToken == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.contracts.fee_token", "is required"})
	}

	for i, token := range config.Tokens {
		prefix := fmt.Sprintf("token[%d]", i)
		if token.Address == "" {
			result.Errors = append(result.Errors, &ValidationError{prefix + ".address", "is required"})
		}
		if token.Name == "" {
			result.Errors = append(result.Errors, &ValidationError{prefix + ".name", "is required"})
		}
		if token.Symbol == "" {
			result.Errors = append(result.Errors, &ValidationError{prefix + ".symbol", "is required"})
		}
	}
}

func (v *Validator) validateTypes(config *ChainInput, result *ValidationResult) {
	chain := config.Chain

	if chain.Type != "" && !slices.Contains(SupportedChainTypes, chain.Type) {
		result.Errors = append(result.Errors, &ValidationError{
			"chain.type",
			fmt.Sprintf("unsupported type '%s', must be one of: %v", chain.Type, SupportedChainTypes),
		})
	}

	if chain.NativeDecimals < 0 || chain.NativeDecimals > 255 {
		result.Errors = append(result.Errors, &ValidationError{"chain.native_decimals", "must be between 0 and 255"})
	}

	addresses := map[string]string{
		"chain.wrapped_native":                chain.WrappedNative,
		"chain.contracts.limit_order_manager": chain.Contracts.LimitOrderManager,
		"chain.contracts.router":              chain.Contracts.Router,
		"chain.contracts.fee_token":           chain.Contracts.FeeToken,
	}
	for field, addr := range addresses {
		if addr != "" && !common.IsHexAddress(addr) {
			result.Errors = append(result.Errors, &ValidationError{field, "must be a hex address"})
		}
	}

	for i, token := range config.Tokens {
		if token.Address != "" && !common.IsHexAddress(token.Address) {
			result.Errors = append(result.Errors, &ValidationError{
				fmt.Sprintf("token[%d].address", i),
				"must be a hex address",
			})
		}
		if token.Decimals < 0 || token.Decimals > 255 {
			result.Errors = append(result.Errors, &ValidationError{
				fmt.Sprintf("token[%d].decimals", i),
				"must be between 0 and 255",
			})
		}
	}
}

func (v *Validator) validateLogic(config *ChainInput, result *ValidationResult) {
	chain := config.Chain

	if chain.ID != 0 && !models.IsSupportedChain(chain.ID) {
		result.Errors = append(result.Errors, &ValidationError{
			"chain.id",
			fmt.Sprintf("chain %d has no limit order deployment", chain.ID),
		})
	}

	// duplicate addresses are compared case-insensitively
	seen := make(map[string]bool)
	for i, token := range config.Tokens {
		key := strings.ToLower(token.Address)
		if seen[key] {
			result.Errors = append(result.Errors, &ValidationError{
				fmt.Sprintf("token[%d].address", i),
				fmt.Sprintf("duplicate address '%s'", token.Address),
			})
		}
		seen[key] = true
	}

	if len(config.Tokens) == 0 && chain.TokenListURL == "" {
		result.Warnings = append(result.Warnings, "no tokens defined and no token list configured")
	}

	for i, rpc := range chain.RPCs {
		if _, err := url.ParseRequestURI(rpc.URL); err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				fmt.Sprintf("chain.rpcs[%d].url", i),
				"must be a valid URL",
			})
		}
	}

	if chain.ExplorerURL != "" && !strings.HasPrefix(chain.ExplorerURL, "https://") {
		result.Errors = append(result.Errors, &ValidationError{"chain.explorer_url", "must use https"})
	}
}

// validateNetwork checks that at least one RPC endpoint is reachable and serves the
// declared chain. An endpoint on another chain is an error, an unreachable one a warning.
func (v *Validator) validateNetwork(config *ChainInput, result *ValidationResult) {
	reachable := false
	for _, rpc := range config.Chain.RPCs {
		ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
		id, err := v.readChainID(ctx, rpc.URL)
		cancel()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("RPC %s is not reachable: %v", rpc.URL, err))
			continue
		}
		if id != config.Chain.ID {
			result.Errors = append(result.Errors, &ValidationError{
				"chain.rpcs",
				fmt.Sprintf("%s serves chain %d, expected %d", rpc.URL, id, config.Chain.ID),
			})
			continue
		}
		reachable = true
	}
	if !reachable && len(config.Chain.RPCs) > 0 {
		result.Warnings = append(result.Warnings, "no RPC endpoints are currently reachable")
	}
}

func dialChainID(ctx context.Context, rpcURL string) (uint64, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}
