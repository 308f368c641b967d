// Command solver quotes trades against 1inch and 0x and places limit orders on the
// limit order manager.
//
// Usage:
//
//	solver quote 1 ETH USDC
//	solver place-order 1 ETH USDC --price 1900
//	solver status <tx-hash>
package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()
}

var (
	configPath   string
	registryPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "solver",
	Short: "Quote trades and place limit orders",
	Long: `solver compares 1inch and 0x quotes for a pair and places limit orders on
the limit order manager of the configured chain, either signed with the local key
or sent through a gasless relay.

Examples:
  solver quote 1 ETH USDC
  solver quote 1800 USDC ETH --exact-output
  solver place-order 1 ETH USDC --price 1900 --one-click
  solver status 0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Solver config file, SOLVER_* env vars when empty")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "Generated token registry, overrides registry_path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(quoteCmd, placeOrderCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("\nError: %v\n", err)
		os.Exit(1)
	}
}
