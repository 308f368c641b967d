package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/solver/chain"
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Show the status of a submitted order transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	raw, err := hexutil.Decode(args[0])
	if err != nil || len(raw) != common.HashLength {
		return fmt.Errorf("invalid transaction hash %q", args[0])
	}
	hash := common.BytesToHash(raw)

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	backend, err := chain.Dial(ctx, a.cfg.RPCURL, a.cfg.ChainID)
	if err != nil {
		return err
	}
	defer backend.Close()

	receipt, err := backend.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		_, pending, txErr := backend.TransactionByHash(ctx, hash)
		if errors.Is(txErr, ethereum.NotFound) {
			color.Red("Transaction %s not found\n", hash.Hex())
			return nil
		}
		if txErr != nil {
			return txErr
		}
		if pending {
			color.Yellow("Transaction %s is pending\n", hash.Hex())
			return nil
		}
		color.Yellow("Transaction %s is known but has no receipt yet\n", hash.Hex())
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("Transaction: %s\n", hash.Hex())
	if receipt.Status == types.ReceiptStatusSuccessful {
		color.Green("  Status:   confirmed\n")
	} else {
		color.Red("  Status:   reverted\n")
	}
	fmt.Printf("  Block:    %s\n", receipt.BlockNumber)
	fmt.Printf("  Gas used: %d\n", receipt.GasUsed)
	if a.deployment.ExplorerURL != "" {
		color.Cyan("  %s/tx/%s\n", strings.TrimSuffix(a.deployment.ExplorerURL, "/"), hash.Hex())
	}
	return nil
}
