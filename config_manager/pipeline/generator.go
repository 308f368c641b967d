// Package pipeline provides the configuration generation pipeline that transforms
// human-readable chain configs into the generated token registry.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/input"
	"github.com/Cogwheel-Validator/spectra-swap/config_manager/output"
	"github.com/Cogwheel-Validator/spectra-swap/config_manager/registry"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "config-pipeline").Logger()
}

// OutputFormat specifies the output format for generated configs.
type OutputFormat string

const (
	FormatTOML OutputFormat = "toml"
	FormatJSON OutputFormat = "json"
	FormatAuto OutputFormat = "auto" // Determine from file extension
)

// GeneratorConfig configures the pipeline generator.
type GeneratorConfig struct {
	// Path to the directory containing human-readable chain configs
	InputDir string

	// Path to output the generated registry, empty for validate only
	OutputPath string

	// Output format (default: auto from extension)
	OutputFormat OutputFormat

	// Directory the token lists are downloaded to (optional)
	TokenListCachePath string

	// Use token lists already present in TokenListCachePath
	UseCachedTokenLists bool

	// Check that every RPC serves the declared chain
	NetworkValidation bool
}

// Generator is the main config generation pipeline.
type Generator struct {
	config         GeneratorConfig
	inputLoader    *input.Loader
	inputValidator *input.Validator
	converter      *output.Converter
}

// NewGenerator creates a new pipeline generator with the given configuration.
func NewGenerator(config GeneratorConfig, validatorOpts ...input.ValidatorOption) *Generator {
	opts := append([]input.ValidatorOption{input.WithSkipNetworkCheck(!config.NetworkValidation)}, validatorOpts...)
	return &Generator{
		config:         config,
		inputLoader:    input.NewLoader(),
		inputValidator: input.NewValidator(opts...),
		converter:      output.NewConverter(),
	}
}

// GenerateResult contains the results of the generation process.
type GenerateResult struct {
	// Number of chains processed
	ChainsProcessed int

	// Number of tokens written across all chains
	TokensWritten int

	// Validation results for each chain
	ValidationResults map[uint64]*input.ValidationResult

	// Path where the registry was written
	OutputPath string

	// Any warnings during generation
	Warnings []string
}

// Generate runs the complete configuration generation pipeline.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	result := &GenerateResult{
		ValidationResults: make(map[uint64]*input.ValidationResult),
		Warnings:          make([]string, 0),
	}

	// Step 1: Load input configs
	log.Info().Str("dir", g.config.InputDir).Msg("Loading chain configs")
	inputConfigs, err := g.inputLoader.LoadAllConfigs(g.config.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load input configs: %w", err)
	}
	log.Info().Int("chains", len(inputConfigs)).Msg("Loaded chain configs")

	// Step 2: Validate input configs
	validationResults, validationErr := g.inputValidator.ValidateAll(inputConfigs)
	result.ValidationResults = validationResults
	for chainID, res := range validationResults {
		for _, warning := range res.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%d: %s", chainID, warning))
		}
		for _, e := range res.Errors {
			log.Error().Uint64("chain", chainID).Err(e).Msg("Validation failed")
		}
	}
	if validationErr != nil {
		return result, validationErr
	}

	// Step 3: Merge remote token lists
	for chainID, config := range inputConfigs {
		if config.Chain.TokenListURL == "" {
			continue
		}
		list, err := g.fetchTokenList(ctx, chainID, config.Chain.TokenListURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%d: token list skipped: %v", chainID, err))
			continue
		}
		config.Tokens = registry.MergeTokens(chainID, config.Tokens, list)
	}

	// Step 4: Convert and write
	reg := g.converter.Convert(inputConfigs)
	result.ChainsProcessed = len(reg.Chains)
	for _, chain := range reg.Chains {
		result.TokensWritten += len(chain.Tokens)
	}

	if g.config.OutputPath != "" {
		if err := g.writeRegistry(reg); err != nil {
			return result, fmt.Errorf("failed to write registry: %w", err)
		}
		result.OutputPath = g.config.OutputPath
		log.Info().Str("path", result.OutputPath).Msg("Registry written")
	}

	log.Info().Msg("Config generation complete")
	return result, nil
}

func (g *Generator) fetchTokenList(ctx context.Context, chainID uint64, src string) (*registry.TokenList, error) {
	cachePath := g.config.TokenListCachePath
	if cachePath == "" {
		currentDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		cachePath = filepath.Join(currentDir, "token-lists")
	}
	dst := filepath.Join(cachePath, strconv.FormatUint(chainID, 10)+".json")

	if _, err := os.Stat(dst); err != nil || !g.config.UseCachedTokenLists {
		if err := registry.TokenListDownload(ctx, src, dst); err != nil {
			return nil, err
		}
	}
	return registry.LoadTokenList(dst)
}

func (g *Generator) writeRegistry(reg *output.Registry) error {
	dir := filepath.Dir(g.config.OutputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	format := g.config.OutputFormat
	if format == FormatAuto || format == "" {
		format = formatFromExtension(g.config.OutputPath)
	}

	var data []byte
	var err error

	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(reg, "", "  ")
	default:
		data, err = toml.Marshal(reg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	return os.WriteFile(g.config.OutputPath, data, 0644)
}

// formatFromExtension determines output format from file extension.
func formatFromExtension(path string) OutputFormat {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML // Default to TOML
	}
}

// ParseFormat converts a flag value into an OutputFormat.
func ParseFormat(s string) OutputFormat {
	switch strings.ToLower(s) {
	case "toml":
		return FormatTOML
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}
