package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"goomnicbridge/EVMRPC"
	"goomnicbridge/config"
	"goomnicbridge/redis"
	"goomnicbridge/registry"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// receiptReader is what the tracker needs from a chain.
type receiptReader interface {
	BlockNumber(ctx context.Context, chain string) (uint64, error)
	TransactionReceipt(ctx context.Context, chain string, txHash common.Hash) (*ethtypes.Receipt, error)
}

type evmReader struct{}

func (evmReader) BlockNumber(ctx context.Context, chain string) (uint64, error) {
	return EVMRPC.BlockNumber(ctx, chain)
}

func (evmReader) TransactionReceipt(ctx context.Context, chain string, txHash common.Hash) (*ethtypes.Receipt, error) {
	return EVMRPC.TransactionReceipt(ctx, chain, txHash)
}

// Worker_trackSwaps follows submitted swap txs until they have enough confirmations.
func Worker_trackSwaps(reg *registry.Registry) {
	interval := time.Duration(config.Config.Swap.TrackInterval) * time.Second
	for !WorkerShutdown.Load() {
		time.Sleep(interval)

		if err := trackSubmittedSwaps(context.Background(), reg, evmReader{}); err != nil {
			log.Printf("Error tracking submitted swaps: %v", err)
		}
	}
}

func trackSubmittedSwaps(ctx context.Context, reg *registry.Registry, reader receiptReader) error {
	submitted, err := redis.FindAllSwapRecordsByStatus("submitted")
	if err != nil {
		return fmt.Errorf("getting submitted swaps: %w", err)
	}

	// one head per chain per iteration
	heads := map[string]uint64{}

	for _, rec := range submitted {
		chain, err := reg.Chain(rec.SourceChain)
		if err != nil {
			log.Printf("Swap %s: %s", rec.ID, err.Error())
			continue
		}

		receipt, err := reader.TransactionReceipt(ctx, chain.Name, common.HexToHash(rec.SwapTxHash))
		if errors.Is(err, ethereum.NotFound) {
			// still in the mempool
			continue
		}
		if err != nil {
			log.Printf("Error getting receipt of %s on %s: %s", rec.SwapTxHash, chain.Name, err.Error())
			continue
		}

		head, ok := heads[chain.Name]
		if !ok {
			head, err = reader.BlockNumber(ctx, chain.Name)
			if err != nil {
				log.Printf("Error getting last block of %s: %s", chain.Name, err.Error())
				continue
			}
			heads[chain.Name] = head
		}

		mined := receipt.BlockNumber.Uint64()
		if head < mined || head-mined+1 < uint64(chain.MinConfirmations) {
			continue
		}

		rec.ConfirmedBlock = mined
		if receipt.Status == ethtypes.ReceiptStatusSuccessful {
			rec.Status = "confirmed"
			log.Printf("Swap %s confirmed in block %d of %s", rec.ID, mined, chain.Name)
		} else {
			rec.Status = "reverted"
			msg := fmt.Sprintf("swap tx %s reverted in block %d", rec.SwapTxHash, mined)
			log.Print(msg)
			rec.AppendMessage(msg)
		}

		err = redis.ChangeSwapRecordStatus(rec, "submitted")
		if err != nil {
			return fmt.Errorf("cannot update swap record status, Redis error: %w", err)
		}
	}
	return nil
}
