package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
)

var (
	exactOutput bool
	watchEvery  time.Duration
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <from-token> <to-token>",
	Short: "Compare 1inch and 0x quotes for a trade",
	Long: `Fetch quotes from every configured source and show the best one together
with the minimum limit price an order on the same pool may use.

Tokens are given by symbol, address or the native placeholder address.
With --exact-output the amount is the output to receive and only 0x is asked.
With --watch the quote is refreshed on every interval until interrupted.`,
	Args: cobra.ExactArgs(3),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().BoolVar(&exactOutput, "exact-output", false, "Treat the amount as the output to receive")
	quoteCmd.Flags().DurationVar(&watchEvery, "watch", 0, "Refresh the best quote on this interval, e.g. 15s")
}

func runQuote(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	from, err := a.deployment.Currency(args[1])
	if err != nil {
		return err
	}
	to, err := a.deployment.Currency(args[2])
	if err != nil {
		return err
	}
	tradeType, amountCurrency := models.ExactInput, from
	if exactOutput {
		tradeType, amountCurrency = models.ExactOutput, to
	}
	amount, err := models.ParseAmount(args[0], amountCurrency)
	if err != nil {
		return err
	}

	if watchEvery > 0 {
		return watchQuote(cmd.Context(), a, from, to, amount, tradeType)
	}

	type result struct {
		quotes []sourceQuote
		best   *models.QuoteEstimate
	}
	res, err := withSpinner("Fetching quotes...", func() (result, error) {
		quotes, best, err := a.fetchQuotes(cmd.Context(), from, to, amount.Raw(), tradeType, "")
		return result{quotes, best}, err
	})
	if err != nil {
		return err
	}

	fmt.Println("\nQuotes:")
	for _, answer := range res.quotes {
		q := answer.Quote
		if q == nil {
			fmt.Printf("  %-6s %s\n", answer.Source, color.RedString("unavailable"))
			continue
		}
		fmt.Printf("  %-6s %s %s for %s %s (gas %s)\n", q.Source,
			q.OutputAmount.ToSignificant(6), to, q.InputAmount.ToSignificant(6), from, q.Gas())
	}
	color.Green("\nBest: %s\n", res.best.Source)

	if res.best.HasNoRoute() {
		color.Yellow("No route found for this pair\n")
		return nil
	}
	trade, err := res.best.Trade()
	if err != nil {
		return err
	}
	fmt.Printf("  Price:         %s\n", trade.ExecutionPrice.ToSignificant(6))
	if minPrice, err := calls.MinimumPrice(trade, a.deployment.WrappedNative, a.cfg.TickOffset); err == nil {
		fmt.Printf("  Minimum price: %s\n", minPrice.ToSignificant(6))
	} else {
		log.Debug().Err(err).Msg("No minimum price for the best route")
	}
	if tradeType == models.ExactInput {
		minOut, err := a.slippage().MinimumAmountOut(trade)
		if err != nil {
			return err
		}
		fmt.Printf("  Minimum out:   %s %s (%s%% slippage)\n", minOut.ToSignificant(6), to, a.slippage().Percent())
	} else {
		maxIn, err := a.slippage().MaximumAmountIn(trade)
		if err != nil {
			return err
		}
		fmt.Printf("  Maximum in:    %s %s (%s%% slippage)\n", maxIn.ToSignificant(6), from, a.slippage().Percent())
	}
	return nil
}

// watchQuote re-resolves the best quote every watchEvery until interrupted. Results of
// a refresh that was overtaken by a newer one are never printed.
func watchQuote(ctx context.Context, a *app, from, to models.Currency, amount models.CurrencyAmount, tradeType models.TradeType) error {
	req, err := a.pairRequest(from, to, amount.Raw(), tradeType, "")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := router.NewMetrics(prometheus.NewRegistry())
	resolver := router.NewResolver(a.sources(tradeType), a.pricer(metrics), router.WithMetrics(metrics))
	defer resolver.Close()
	results := resolver.Subscribe()

	ticker := time.NewTicker(watchEvery)
	defer ticker.Stop()
	resolver.Update(ctx, req)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			resolver.Update(ctx, req)
		case res, ok := <-results:
			if !ok {
				return nil
			}
			printWatched(res, from, to)
		}
	}
}

func printWatched(res router.Result, from, to models.Currency) {
	stamp := time.Now().Format(time.TimeOnly)
	switch res.State {
	case router.StateValid:
		q := res.Trade
		fmt.Printf("%s  %-6s %s %s for %s %s", stamp, q.Source,
			q.OutputAmount.ToSignificant(6), to, q.InputAmount.ToSignificant(6), from)
		if res.Savings != nil {
			fmt.Printf(" (1inch output ~$%s)", res.Savings.StringFixed(2))
		}
		fmt.Println()
	case router.StateNoRouteFound:
		color.Yellow("%s  no route found\n", stamp)
	case router.StateInvalid:
		color.Red("%s  no source returned a quote\n", stamp)
	}
}
