package main

import (
	"fmt"
	"strings"

	"goomnicbridge/EVMRPC"
	"goomnicbridge/config"
	"goomnicbridge/registry"

	"github.com/spf13/cobra"
)

var probe bool

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List configured chains and their tokens",
	// the signer is not needed to list chains
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		config.Config = *cfg
		reg, err = registry.New(cfg.Chains)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range reg.Names() {
			chain, err := reg.Chain(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\tchain id %d\t%s\t%s\n", name, chain.ChainID, chain.Ledger, strings.Join(chain.Symbols(), ","))
		}

		if !probe {
			return nil
		}
		for _, st := range EVMRPC.ProbeAll() {
			if st.Healthy {
				fmt.Fprintf(out, "%s\t%s\tok\tblock %d\n", st.Chain, st.URL, st.Block)
			} else {
				fmt.Fprintf(out, "%s\t%s\tdown\t%s\n", st.Chain, st.URL, st.Error)
			}
		}
		return nil
	},
}

func init() {
	chainsCmd.Flags().BoolVarP(&probe, "probe", "p", false, "Also check every RPC endpoint")
	rootCmd.AddCommand(chainsCmd)
}
