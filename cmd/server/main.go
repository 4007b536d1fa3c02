package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"goomnicbridge/EVMRPC"
	"goomnicbridge/bridge"
	"goomnicbridge/config"
	"goomnicbridge/redis"
	"goomnicbridge/registry"
	"goomnicbridge/workers"
	"goomnicbridge/workers/handlers"
)

func main() {
	log.Print("Starting omnic swap service")

	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	config.Init()

	reg, err := registry.New(config.Config.Chains)
	if err != nil {
		log.Fatalf("error loading chains: %v", err)
	}

	backend, err := EVMRPC.NewBackend(config.Config.EVM.PrivateKey, config.Config.EVM.PublicAddress)
	if err != nil {
		log.Fatalf("error loading signer: %v", err)
	}
	log.Printf("Signing as %s on %v", backend.Owner().Hex(), reg.Names())

	// connect to Redis, without persistence do not continue
	redis.Init()
	if err := redis.Ping(); err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}

	// every process signing with this key shares the approval lock and memo
	guard := bridge.NewGuard(reg, backend,
		bridge.WithLocker(redis.NewApprovalLock(config.Config.LockTTL())),
		bridge.WithMemo(redis.NewApprovalMemo(config.Config.ApprovalMemoTTL()), backend),
		bridge.WithDeadline(config.Config.LockTTL()),
	)
	dispatcher := bridge.NewDispatcher(reg, reg, backend, guard)

	handlers.Init(reg, guard, backend)

	// there are 3 worker threads:
	// * dispatch queued swaps
	// * follow submitted swaps until confirmed
	// * API serving HTTP(S) server (serves as main worker thread)
	go workers.Worker_processExecution(dispatcher)
	go workers.Worker_trackSwaps(reg)

	workers.Worker_HTTP()
}
