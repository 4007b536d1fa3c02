package workers

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"goomnicbridge/bridge"
	"goomnicbridge/config"
	"goomnicbridge/redis"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Worker_processExecution dispatches queued swaps one at a time, so the signer
// never has two swaps in flight from this process.
func Worker_processExecution(d *bridge.Dispatcher) {
	interval := time.Duration(config.Config.Swap.ExecutionInterval) * time.Second
	for !WorkerShutdown.Load() {
		time.Sleep(interval)

		if _, err := processNextSwap(context.Background(), d); err != nil {
			log.Printf("Error processing pending swap: %v", err)
		}
	}
}

func intentFromRecord(rec *types.SwapRecord) (types.SwapIntent, error) {
	amount, ok := new(big.Int).SetString(rec.Amount, 10)
	if !ok {
		return types.SwapIntent{}, fmt.Errorf("malformed amount %q", rec.Amount)
	}
	raw, err := hexutil.Decode(rec.Recipient)
	if err != nil || len(raw) != 32 {
		return types.SwapIntent{}, fmt.Errorf("malformed recipient %q", rec.Recipient)
	}
	intent := types.SwapIntent{
		SourceChain: rec.SourceChain,
		Token:       rec.Token,
		Destination: rec.Destination,
		Amount:      amount,
	}
	copy(intent.Recipient[:], raw)
	return intent, nil
}

// processNextSwap takes the oldest pending swap and dispatches it.
// It reports whether a swap was found; the error is only for journal failures.
func processNextSwap(ctx context.Context, d *bridge.Dispatcher) (bool, error) {
	pending, err := redis.FindSwapRecordStatus("pending")
	if err != nil {
		return false, fmt.Errorf("getting pending swaps: %w", err)
	}
	if pending == nil {
		return false, nil
	}
	log.Printf("Found pending swap, %#v\n", pending)

	// update record before sending anything to prevent looped sending if some error
	pending.Status = "executing"
	err = redis.ChangeSwapRecordStatus(pending, "pending")
	if err != nil {
		// emergency exit
		log.Printf("Error saving updated swap record: %v, emergency exit to avoid looping", err)
		WorkerShutdown.Store(true)
		return true, err
	}

	intent, err := intentFromRecord(pending)
	if err == nil {
		var sub *bridge.Submission
		sub, err = d.DispatchSwap(ctx, intent)
		if err == nil {
			pending.Status = "submitted"
			pending.SwapTxHash = sub.Swap.Hash().Hex()
			if sub.Approval != nil {
				pending.ApproveTxHash = sub.Approval.Hash().Hex()
			}
			pending.SrcPoolID = sub.SrcPoolID.String()
			pending.DstPoolID = sub.DstPoolID.String()
		}
	}
	if err != nil {
		pending.Status = "failed"
		msg := fmt.Sprintf("%s error: %s", bridge.Classify(err), err.Error())
		log.Print(msg)
		pending.AppendMessage(msg)
	}

	err = redis.ChangeSwapRecordStatus(pending, "executing")
	if err != nil {
		// emergency exit
		log.Printf("Error saving updated swap record: %v, emergency exit to avoid looping", err)
		WorkerShutdown.Store(true)
		return true, err
	}
	return true, nil
}
