package EVMRPC

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"goomnicbridge/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

func chainConfig(chain string) (config.ChainConfig, error) {
	cc, ok := config.Config.Chains[strings.ToLower(chain)]
	if !ok {
		return cc, fmt.Errorf("chain %q is not configured", chain)
	}
	if len(cc.RPCList) == 0 {
		return cc, fmt.Errorf("chain %q has no rpc endpoints", chain)
	}
	return cc, nil
}

// WithClient runs a read against the chain's endpoints in order until one succeeds.
func WithClient[T any](ctx context.Context, chain string, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	cc, err := chainConfig(chain)
	if err != nil {
		return res, err
	}

	var client *ethclient.Client
	for i, url := range cc.RPCList {
		if i >= config.EVM_RETRIES {
			break
		}
		client, err = ethclient.DialContext(ctx, url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
		log.Printf("Error calling %s: %s", url, err.Error())
	}
	return
}

// WithWriteClient runs f once, on the first endpoint that can be dialed.
// A rejected transaction is never resent to another endpoint.
func WithWriteClient[T any](ctx context.Context, chain string, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	cc, err := chainConfig(chain)
	if err != nil {
		return res, err
	}

	for _, url := range cc.RPCList {
		client, dialErr := ethclient.DialContext(ctx, url)
		if dialErr != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, dialErr.Error()))
			err = dialErr
			continue
		}
		defer client.Close()
		return f(client)
	}
	return
}

func BlockNumber(ctx context.Context, chain string) (uint64, error) {
	return WithClient(ctx, chain, func(client *ethclient.Client) (uint64, error) {
		return client.BlockNumber(ctx)
	})
}

// TransactionReceipt returns ethereum.NotFound while the tx is not mined.
func TransactionReceipt(ctx context.Context, chain string, txHash common.Hash) (*ethtypes.Receipt, error) {
	return WithClient(ctx, chain, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
		return client.TransactionReceipt(ctx, txHash)
	})
}

// TransactionPending reports whether the tx waits in the mempool of the first
// endpoint that answers. A tx the node does not know is not pending.
func TransactionPending(ctx context.Context, chain string, txHash common.Hash) (bool, error) {
	return WithClient(ctx, chain, func(client *ethclient.Client) (bool, error) {
		_, pending, err := client.TransactionByHash(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return false, nil
		}
		return pending, err
	})
}
