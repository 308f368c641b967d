// Command generate runs the config generation pipeline to transform human-readable
// chain configs into the token registry read by the pathfinder and the solver.
//
// Usage:
//
//	go run ./config_manager/cmd/generate \
//	  --input ./chain_configs \
//	  --output ./generated/registry.toml
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/pipeline"
)

var (
	inputDir       string
	outputPath     string
	outputFormat   string
	tokenListCache string
	useCache       bool
	checkNetwork   bool
	validateOnly   bool
)

var rootCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the token registry from chain configs",
	Long: `generate loads every chain config in the input directory, validates it,
merges the configured remote token lists and writes the registry used by the
pathfinder and the solver.

Examples:
  generate --input ./chain_configs --output ./generated/registry.toml
  generate --input ./chain_configs --validate-only --check-network`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

func init() {
	rootCmd.Flags().StringVar(&inputDir, "input", "./chain_configs", "Directory containing human-readable chain configs")
	rootCmd.Flags().StringVar(&outputPath, "output", "./generated/registry.toml", "Output path for the registry")
	rootCmd.Flags().StringVar(&outputFormat, "format", "auto", "Output format: auto, toml, json")
	rootCmd.Flags().StringVar(&tokenListCache, "token-list-cache", "", "Directory to store downloaded token lists (optional)")
	rootCmd.Flags().BoolVar(&useCache, "use-cache", false, "Use cached token lists instead of downloading fresh")
	rootCmd.Flags().BoolVar(&checkNetwork, "check-network", false, "Check that every RPC serves the declared chain")
	rootCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Only validate configs, don't generate")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("\nError: %v\n", err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	config := pipeline.GeneratorConfig{
		InputDir:            inputDir,
		OutputPath:          outputPath,
		OutputFormat:        pipeline.ParseFormat(outputFormat),
		TokenListCachePath:  tokenListCache,
		UseCachedTokenLists: useCache,
		NetworkValidation:   checkNetwork,
	}
	if validateOnly {
		config.OutputPath = ""
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Starting config generation pipeline...\n")
	result, err := pipeline.NewGenerator(config).Generate(ctx)
	if result != nil {
		printSummary(result)
	}
	if err != nil {
		return fmt.Errorf("generating registry: %w", err)
	}

	if result.OutputPath != "" {
		fmt.Printf("\nOutput file: %s\n", color.CyanString(result.OutputPath))
	}
	color.Green("\nFinished the generation pipeline!\n")
	return nil
}

func printSummary(result *pipeline.GenerateResult) {
	fmt.Println("\nSummary:")
	fmt.Printf("  Chains processed: %d\n", result.ChainsProcessed)
	fmt.Printf("  Tokens written:   %d\n", result.TokensWritten)

	if len(result.Warnings) > 0 {
		color.Yellow("\nWarnings:\n")
		for _, warning := range result.Warnings {
			fmt.Printf("\t- %s\n", warning)
		}
	}

	chainIDs := make([]uint64, 0, len(result.ValidationResults))
	for id := range result.ValidationResults {
		chainIDs = append(chainIDs, id)
	}
	sort.Slice(chainIDs, func(i, j int) bool { return chainIDs[i] < chainIDs[j] })
	for _, id := range chainIDs {
		res := result.ValidationResults[id]
		if res.IsValid {
			continue
		}
		fmt.Printf("  %s\n", color.RedString("%d: validation failed", id))
		for _, e := range res.Errors {
			fmt.Printf("\t- %v\n", e)
		}
	}
}
