package main

import (
	"fmt"
	"log"
	"os"

	"goomnicbridge/EVMRPC"
	"goomnicbridge/bridge"
	"goomnicbridge/config"
	"goomnicbridge/redis"
	"goomnicbridge/registry"

	"github.com/spf13/cobra"
)

var (
	configFile string
	useRedis   bool
)

// set up by the persistent pre-run of every command
var (
	reg     *registry.Registry
	backend *EVMRPC.Backend
)

var rootCmd = &cobra.Command{
	Use:   "omnicswap",
	Short: "Approve bridge routers and send cross-chain swaps",
	Long: `omnicswap sends a token from an EVM chain to another EVM chain or to the IC
through the bridge router deployed on the source chain. Before the swap the router
is approved to spend the token if it has no allowance yet.

Chains, token and contract addresses are read from the config file, the signer
from EVM_PRIVATE_KEY (or the config file).`,
	SilenceUsage: true,
}

func loadEnvironment(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	config.Config = *cfg

	reg, err = registry.New(cfg.Chains)
	if err != nil {
		return err
	}
	backend, err = EVMRPC.NewBackend(cfg.EVM.PrivateKey, cfg.EVM.PublicAddress)
	return err
}

// newGuard uses the Redis lock and memo when --redis is set, so the CLI can run
// next to the server signing with the same key.
func newGuard() *bridge.Guard {
	if !useRedis {
		return bridge.NewGuard(reg, backend,
			bridge.WithMemo(bridge.NewMemoryMemo(config.Config.ApprovalMemoTTL()), backend),
			bridge.WithDeadline(config.Config.LockTTL()),
		)
	}
	redis.Init()
	return bridge.NewGuard(reg, backend,
		bridge.WithLocker(redis.NewApprovalLock(config.Config.LockTTL())),
		bridge.WithMemo(redis.NewApprovalMemo(config.Config.ApprovalMemoTTL()), backend),
		bridge.WithDeadline(config.Config.LockTTL()),
	)
}

func init() {
	defaultConfig := os.Getenv("CONFIG_FILE")
	if defaultConfig == "" {
		defaultConfig = "config.yml"
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfig, "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&useRedis, "redis", false, "Share the approval lock and memo with other processes through the configured Redis")
}

func main() {
	// the CLI prints results, logs go to stderr
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
