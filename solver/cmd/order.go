package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
	"github.com/Cogwheel-Validator/spectra-swap/solver/chain"
	"github.com/Cogwheel-Validator/spectra-swap/solver/config"
	"github.com/Cogwheel-Validator/spectra-swap/solver/executor"
	"github.com/Cogwheel-Validator/spectra-swap/solver/swap"
)

var (
	limitPrice    string
	outputAmount  string
	recipientAddr string
	fromAddr      string
	smartWallet   string
	slippageFlag  string
	gasless       bool
	oneClick      bool
	noConfirm     bool
)

var placeOrderCmd = &cobra.Command{
	Use:   "place-order <amount> <from-token> <to-token>",
	Short: "Place a limit order selling <amount> of <from-token>",
	Long: `Place a limit order on the limit order manager. The order sells <amount> of
<from-token> for at least --output of <to-token>, or at --price <to-token> per
<from-token>. Without either the order is placed at the minimum price of the best
quoted pool.

Examples:
  # Sell 1 ETH for USDC at 1900 USDC per ETH
  solver place-order 1 ETH USDC --price 1900

  # Top up the service fee funding in the same transaction
  solver place-order 1 ETH USDC --output 1900 --one-click

  # Let the relay pay for gas
  solver place-order 1000 USDC ETH --price 0.0006 --gasless --from 0x123...`,
	Args: cobra.ExactArgs(3),
	RunE: runPlaceOrder,
}

func init() {
	placeOrderCmd.Flags().StringVar(&limitPrice, "price", "", "Limit price in <to-token> per <from-token>")
	placeOrderCmd.Flags().StringVar(&outputAmount, "output", "", "Minimum amount of <to-token> to receive")
	placeOrderCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient of the order output, defaults to the sender")
	placeOrderCmd.Flags().StringVar(&fromAddr, "from", "", "Sender for gasless orders when no private key is configured")
	placeOrderCmd.Flags().StringVar(&smartWallet, "smart-wallet", "", "Argent wallet address sending the order")
	placeOrderCmd.Flags().StringVar(&slippageFlag, "slippage", "", "Slippage tolerance in percent, overrides slippage_bps")
	placeOrderCmd.Flags().BoolVar(&gasless, "gasless", false, "Send through the configured relay")
	placeOrderCmd.Flags().BoolVar(&oneClick, "one-click", false, "Top up the service fee funding in the same transaction")
	placeOrderCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	placeOrderCmd.MarkFlagsMutuallyExclusive("price", "output")
}

func runPlaceOrder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	signer, account, err := a.sender()
	if err != nil {
		return err
	}

	backend, err := chain.Dial(ctx, a.cfg.RPCURL, a.cfg.ChainID)
	if err != nil {
		return err
	}
	defer backend.Close()
	contracts := chain.NewContracts(backend, a.deployment.LimitOrderManager)

	from, err := a.deployment.Currency(args[1])
	if err != nil {
		return err
	}
	to, err := a.deployment.Currency(args[2])
	if err != nil {
		return err
	}
	input, err := models.ParseAmount(args[0], from)
	if err != nil {
		return err
	}
	if input.IsZero() {
		return errors.New(swap.MsgEnterAmount)
	}

	best, err := withSpinner("Fetching quote...", func() (*models.QuoteEstimate, error) {
		_, best, err := a.fetchQuotes(ctx, from, to, input.Raw(), models.ExactInput, account.Hex())
		return best, err
	})
	if err != nil {
		return err
	}
	trade, err := best.Trade()
	if err != nil {
		return err
	}

	balance, err := contracts.Balance(ctx, from, account)
	if err != nil {
		return err
	}
	inputs := swap.Inputs{
		Account:        &account,
		InputCurrency:  &from,
		OutputCurrency: &to,
		InputAmount:    &input,
		Trade:          trade,
		InputBalance:   &balance,
	}
	if inputs.OutputAmount, err = targetOutput(input, to); err != nil {
		return err
	}
	if recipientAddr != "" {
		if !common.IsHexAddress(recipientAddr) {
			return fmt.Errorf("invalid recipient %q", recipientAddr)
		}
		recipient := common.HexToAddress(recipientAddr)
		inputs.Recipient = &recipient
	}

	deriver := swap.NewDeriver(a.deployment.WrappedNative, a.cfg.TickOffset, a.deployment.BadRecipients()...)
	info := deriver.Derive(inputs)
	if !info.Ready() {
		return errors.New(info.InputError)
	}

	slippage := a.slippage()
	if slippageFlag != "" {
		if slippage, err = calls.ParseSlippagePercent(slippageFlag); err != nil {
			return err
		}
	}

	params := calls.BuildParams{
		Trade:        trade,
		Recipient:    info.Recipient,
		ParsedAmount: info.InputAmount,
		PriceTarget:  info.Price,
		AllInOne:     oneClick,
		Slippage:     &slippage,
	}
	if smartWallet != "" {
		if !common.IsHexAddress(smartWallet) {
			return fmt.Errorf("invalid smart wallet %q", smartWallet)
		}
		wallet := common.HexToAddress(smartWallet)
		params.SmartWallet = &wallet
	}
	fee, err := contracts.CurrentServiceFee(ctx, a.deployment.FeeToken, account)
	if err != nil {
		return err
	}
	params.ServiceFee = &fee
	if oneClick {
		if params.Funding, err = a.fundingState(ctx, contracts, account, fee); err != nil {
			return err
		}
	}

	builder := calls.NewBuilder(a.cfg.ChainID, a.deployment.LimitOrderManager, a.deployment.WrappedNative, calls.WithSlippage(a.slippage()))
	swapCalls, err := builder.BuildCalls(params)
	if err != nil {
		return err
	}
	if len(swapCalls) == 0 {
		return errors.New("order is missing inputs, nothing to send")
	}

	printOrder(info, fee, slippage)
	if !noConfirm && !confirm() {
		fmt.Println("\nOrder cancelled.")
		return nil
	}

	opts := []executor.Option{executor.WithRecorder(executor.NewMemoryRecorder(a.cfg.RecorderCapacity))}
	if gasless {
		if a.cfg.RelayURL == "" || a.deployment.Router == (common.Address{}) {
			return errors.New("gasless orders need relay_url and a router in the registry")
		}
		relayer, err := executor.DialRelayer(ctx, a.cfg.RelayURL)
		if err != nil {
			return err
		}
		defer relayer.Close()
		opts = append(opts,
			executor.WithRelay(relayer, a.deployment.Router, a.deployment.LimitOrderManager),
			executor.WithRelayPolling(a.cfg.RelayPollInterval, a.cfg.RelayTimeout),
		)
	}
	exec := executor.NewExecutor(backend, signer, a.cfg.ChainID, opts...)
	p := executor.ExecuteParams{Calls: swapCalls, Trade: trade, From: account, Gasless: gasless}
	if exec.State(p) != models.SwapCallbackValid {
		return fmt.Errorf("order cannot be sent from %s", account.Hex())
	}

	hash, err := withSpinner("Submitting order...", func() (common.Hash, error) {
		return exec.Execute(ctx, p)
	})
	if err != nil {
		return err
	}

	color.Green("\nOrder submitted: %s\n", hash.Hex())
	if a.deployment.ExplorerURL != "" {
		color.Cyan("  %s/tx/%s\n", strings.TrimSuffix(a.deployment.ExplorerURL, "/"), hash.Hex())
	}
	fmt.Println("\nYou can monitor the order using:")
	color.Cyan("  solver status %s\n", hash.Hex())
	return nil
}

// sender returns the signer, nil for keyless gasless orders, and the sending account.
func (a *app) sender() (chain.Signer, common.Address, error) {
	if a.cfg.PrivateKey != "" {
		s, err := chain.NewKeySigner(a.cfg.PrivateKey)
		if err != nil {
			return nil, common.Address{}, err
		}
		return s, s.Address(), nil
	}
	if gasless && common.IsHexAddress(fromAddr) {
		return nil, common.HexToAddress(fromAddr), nil
	}
	return nil, common.Address{}, fmt.Errorf("set %s, or use --gasless with --from", config.PrivateKeyEnv)
}

// targetOutput reads --output or --price. Nil means the order uses the minimum price.
func targetOutput(input models.CurrencyAmount, to models.Currency) (*models.CurrencyAmount, error) {
	var value string
	switch {
	case outputAmount != "":
		value = outputAmount
	case limitPrice != "":
		price, err := decimal.NewFromString(limitPrice)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("invalid price %q", limitPrice)
		}
		value = input.ToDecimal().Mul(price).String()
	default:
		return nil, nil
	}
	out, err := models.ParseAmount(value, to)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// fundingState prepares a one-click top up: the trade buying the required fee tokens with
// the native coin and the current funding reads.
func (a *app) fundingState(ctx context.Context, contracts *chain.Contracts, account common.Address, fee models.CurrencyAmount) (*calls.FundingState, error) {
	required, err := models.RequiredFunding(&fee)
	if err != nil {
		return nil, err
	}
	_, best, err := a.fetchQuotes(ctx, a.deployment.Native, a.deployment.FeeToken, required.Raw(), models.ExactOutput, account.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to quote service fee funding: %w", err)
	}
	fundingTrade, err := best.Trade()
	if err != nil {
		return nil, err
	}
	return contracts.FundingState(ctx, account, a.deployment.FeeToken, fundingTrade, nil)
}

func printOrder(info swap.Info, fee models.CurrencyAmount, slippage calls.SlippageTolerance) {
	fmt.Println("\nOrder:")
	fmt.Printf("  Sell:          %s %s\n", info.InputAmount.ToSignificant(6), info.InputAmount.Currency)
	fmt.Printf("  Receive:       %s %s\n", info.OutputAmount.ToSignificant(6), info.OutputAmount.Currency)
	fmt.Printf("  Limit price:   %s\n", info.Price.ToSignificant(6))
	fmt.Printf("  Minimum price: %s\n", info.MinPrice.ToSignificant(6))
	fmt.Printf("  Recipient:     %s\n", info.Recipient.Hex())
	fmt.Printf("  Service fee:   %s %s\n", fee.ToSignificant(6), fee.Currency)
	fmt.Printf("  Slippage:      %s%%\n", slippage.Percent())
	if warning := slippage.Warning(); warning != calls.SlippageOK {
		color.Yellow("  %s\n", warning)
	}
}

func confirm() bool {
	fmt.Print("\nPlace this order? (y/N): ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
