package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"goomnicbridge/bridge"
	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	swapFrom      string
	swapTo        string
	swapToken     string
	swapAmount    string
	swapRecipient string

	approveChain   string
	approveToken   string
	approveSpender string
	approveAmount  string
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

var swapCmd = &cobra.Command{
	Use:               "swap",
	Short:             "Approve the router if needed and submit a swap",
	Example:           "omnicswap swap --from goerli --to ic --token USDT --amount 1000000 --recipient 0xcfbc...",
	PersistentPreRunE: loadEnvironment,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := bridge.ParseAmount(swapAmount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		recipient, err := bridge.PadRecipient(swapRecipient)
		if err != nil {
			return fmt.Errorf("recipient: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		dispatcher := bridge.NewDispatcher(reg, reg, backend, newGuard())
		sub, err := dispatcher.DispatchSwap(ctx, types.SwapIntent{
			SourceChain: swapFrom,
			Token:       swapToken,
			Destination: swapTo,
			Amount:      amount,
			Recipient:   recipient,
		})
		if err != nil {
			return err
		}

		if sub.Approval != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "approve tx: %s\n", sub.Approval.Hash().Hex())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swap tx: %s (src pool %s, dst pool %s, dst chain id %d)\n",
			sub.Swap.Hash().Hex(), sub.SrcPoolID, sub.DstPoolID, sub.DstChainID)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:               "approve",
	Short:             "Approve a spender (the router by default) if it has no allowance",
	PersistentPreRunE: loadEnvironment,
	RunE: func(cmd *cobra.Command, args []string) error {
		spender := common.HexToAddress(approveSpender)
		if approveSpender == "" {
			addr, err := reg.Resolve(approveChain, config.CONTRACT_ROUTER)
			if err != nil {
				return err
			}
			spender = addr
		} else if !common.IsHexAddress(approveSpender) {
			return fmt.Errorf("spender %q is not an address", approveSpender)
		}

		amount := bridge.ApprovalCeiling
		if approveAmount != "" {
			var err error
			amount, err = bridge.ParseAmount(approveAmount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		tx, err := newGuard().EnsureApproved(ctx, approveChain, approveToken, spender, amount)
		if err != nil {
			return err
		}
		if tx == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already approved for %s\n", approveToken, spender.Hex())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approve tx: %s\n", tx.Hash().Hex())
		return nil
	},
}

func init() {
	swapCmd.Flags().StringVarP(&swapFrom, "from", "f", "", "Source chain")
	swapCmd.Flags().StringVarP(&swapTo, "to", "t", "", "Destination chain or ledger")
	swapCmd.Flags().StringVarP(&swapToken, "token", "k", "", "Token symbol, registered under the same symbol on both chains")
	swapCmd.Flags().StringVarP(&swapAmount, "amount", "a", "", "Amount in token base units")
	swapCmd.Flags().StringVarP(&swapRecipient, "recipient", "r", "", "Recipient on the destination, hex encoded, padded to 32 bytes")
	for _, f := range []string{"from", "to", "token", "amount", "recipient"} {
		swapCmd.MarkFlagRequired(f)
	}

	approveCmd.Flags().StringVarP(&approveChain, "chain", "n", "", "Chain of the token")
	approveCmd.Flags().StringVarP(&approveToken, "token", "k", "", "Token symbol")
	approveCmd.Flags().StringVarP(&approveSpender, "spender", "s", "", "Spender address, the chain's Router if empty")
	approveCmd.Flags().StringVarP(&approveAmount, "amount", "a", "", "Allowance in token base units, the swap approval ceiling if empty")
	approveCmd.MarkFlagRequired("chain")
	approveCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(approveCmd)
}
