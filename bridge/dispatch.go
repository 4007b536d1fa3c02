package bridge

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type Dispatcher struct {
	registry  ChainRegistry
	resolver  AddressResolver
	contracts Contracts
	guard     *Guard
}

// Submission is the outcome of a dispatched swap. Swap is the router transaction,
// Approval is set when the router had to be approved first.
type Submission struct {
	Swap       *ethtypes.Transaction
	Approval   *ethtypes.Transaction
	DstChainID uint16
	SrcPoolID  *big.Int
	DstPoolID  *big.Int
}

// NewDispatcher wires the collaborators. A nil guard gets a default one over the same resolver and contracts.
func NewDispatcher(registry ChainRegistry, resolver AddressResolver, contracts Contracts, guard *Guard) *Dispatcher {
	if guard == nil {
		guard = NewGuard(resolver, contracts)
	}
	return &Dispatcher{
		registry:  registry,
		resolver:  resolver,
		contracts: contracts,
		guard:     guard,
	}
}

func (d *Dispatcher) Guard() *Guard {
	return d.guard
}

// DispatchSwap approves the source router if needed and submits one Router.swap.
//
// All lookups (chain ids, addresses, pool ids on both ledgers) happen before the
// approval, so a misconfigured token or chain fails with a ResolutionError without
// any transaction being sent. The router is asked for zero slippage: minAmountLD
// equals amountLD. The swap tx is returned as soon as the node accepts it.
func (d *Dispatcher) DispatchSwap(ctx context.Context, intent types.SwapIntent) (*Submission, error) {
	if intent.Amount == nil || intent.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	src := intent.SourceChain

	kind, err := d.registry.Ledger(src)
	if err != nil {
		return nil, &ResolutionError{Chain: src, Name: "ledger", Err: err}
	}
	if kind != types.LEDGER_EVM {
		return nil, &ResolutionError{Chain: src, Name: "ledger", Err: fmt.Errorf("%w: cannot swap from %s ledger", ErrUnsupportedLedger, kind)}
	}

	dst, err := destinationFor(d.registry, intent.Destination)
	if err != nil {
		return nil, err
	}
	dstChainID, err := d.registry.ChainID(intent.Destination)
	if err != nil {
		return nil, &ResolutionError{Chain: intent.Destination, Name: "chain id", Err: err}
	}

	tokenAddr, err := d.resolver.Resolve(src, intent.Token)
	if err != nil {
		return nil, &ResolutionError{Chain: src, Name: intent.Token, Err: err}
	}
	routerAddr, err := d.resolver.Resolve(src, config.CONTRACT_ROUTER)
	if err != nil {
		return nil, &ResolutionError{Chain: src, Name: config.CONTRACT_ROUTER, Err: err}
	}

	srcPoolID, err := d.lookupPoolID(ctx, src, intent.Token, tokenAddr)
	if err != nil {
		return nil, err
	}
	dstPoolID, err := dst.poolID(ctx, d, intent.Token)
	if err != nil {
		return nil, err
	}

	router, err := d.contracts.Router(src, routerAddr)
	if err != nil {
		return nil, &RemoteCallError{Chain: src, Op: "bind " + config.CONTRACT_ROUTER, Err: err}
	}

	approval, err := d.guard.ensureApproved(ctx, src, intent.Token, tokenAddr, routerAddr, ApprovalCeiling)
	if err != nil {
		return nil, &GuardError{Chain: src, Token: intent.Token, Err: err}
	}

	args := SwapArgs{
		DstChainID:  dstChainID,
		SrcPoolID:   srcPoolID,
		DstPoolID:   dstPoolID,
		AmountLD:    new(big.Int).Set(intent.Amount),
		MinAmountLD: new(big.Int).Set(intent.Amount),
		To:          intent.Recipient,
	}

	log.Printf(
		"Swapping %s %s from %s (pool %s) to %s (chain id %d, pool %s), recipient %s",
		args.AmountLD.String(), intent.Token, src, srcPoolID.String(),
		dst.Chain(), dstChainID, dstPoolID.String(), hexutil.Encode(intent.Recipient[:]),
	)

	tx, err := router.Swap(ctx, args)
	if err != nil {
		return nil, &RemoteCallError{Chain: src, Op: "swap", Err: err}
	}
	log.Printf("Swap tx: %s", tx.Hash().Hex())

	return &Submission{
		Swap:       tx,
		Approval:   approval,
		DstChainID: dstChainID,
		SrcPoolID:  srcPoolID,
		DstPoolID:  dstPoolID,
	}, nil
}
