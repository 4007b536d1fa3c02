package bridge

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Guard approves a spender for a token only when no allowance exists.
// A non-zero allowance counts as approved even if it is smaller than the next transfer.
type Guard struct {
	resolver  AddressResolver
	contracts Contracts
	locker    Locker
	memo      ApprovalMemo
	txs       TxStatus
	deadline  time.Duration
}

// TxStatus reports whether a submitted transaction still waits to be mined.
// Dropped and unknown transactions are not pending.
type TxStatus interface {
	TxPending(ctx context.Context, chain string, txHash common.Hash) (bool, error)
}

type GuardOption func(*Guard)

// WithLocker replaces the default in-process locker, e.g. with a Redis lock
// shared by every process signing with the same key.
func WithLocker(l Locker) GuardOption {
	return func(g *Guard) { g.locker = l }
}

// WithMemo makes the guard skip an approval when the allowance reads zero but a
// recent approval for the same key is still pending according to txs.
func WithMemo(m ApprovalMemo, txs TxStatus) GuardOption {
	return func(g *Guard) {
		g.memo = m
		g.txs = txs
	}
}

// WithDeadline bounds the read and approve made under the lock. Pass the lock
// TTL so a lease never expires while its holder is still talking to the node.
func WithDeadline(d time.Duration) GuardOption {
	return func(g *Guard) { g.deadline = d }
}

func NewGuard(resolver AddressResolver, contracts Contracts, opts ...GuardOption) *Guard {
	g := &Guard{
		resolver:  resolver,
		contracts: contracts,
		locker:    NewKeyedLocker(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureApproved reads allowance(owner, spender) of the token and submits one
// approve(spender, amount) if it is zero. The approval tx is returned without
// waiting for it to be mined; nil means nothing was submitted.
func (g *Guard) EnsureApproved(ctx context.Context, chain, symbol string, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	tokenAddr, err := g.resolver.Resolve(chain, symbol)
	if err != nil {
		return nil, &ResolutionError{Chain: chain, Name: symbol, Err: err}
	}
	return g.ensureApproved(ctx, chain, symbol, tokenAddr, spender, amount)
}

func (g *Guard) ensureApproved(ctx context.Context, chain, symbol string, tokenAddr, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	token, err := g.contracts.Token(chain, tokenAddr)
	if err != nil {
		return nil, &RemoteCallError{Chain: chain, Op: "bind " + symbol, Err: err}
	}
	owner := g.contracts.Owner()

	// read-then-approve must not interleave for the same allowance
	key := approvalKey(chain, tokenAddr, owner, spender)
	unlock, err := g.locker.Lock(ctx, key)
	if err != nil {
		return nil, &RemoteCallError{Chain: chain, Op: "lock " + key, Err: err}
	}
	defer unlock()

	if g.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.deadline)
		defer cancel()
	}

	allowance, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, &RemoteCallError{Chain: chain, Op: "allowance", Err: err}
	}
	if allowance.Sign() != 0 {
		log.Printf("%s on %s already approved for %s, allowance: %s", symbol, chain, spender.Hex(), allowance.String())
		return nil, nil
	}

	if g.memo != nil {
		inFlight, err := g.approvalInFlight(ctx, chain, key)
		if err != nil {
			return nil, err
		}
		if inFlight {
			log.Printf("%s approval for %s on %s is still pending, not approving again", symbol, spender.Hex(), chain)
			return nil, nil
		}
	}

	log.Printf("Approving %s %s on %s for %s", amount.String(), symbol, chain, spender.Hex())
	tx, err := token.Approve(ctx, spender, amount)
	if err != nil {
		return nil, &RemoteCallError{Chain: chain, Op: "approve", Err: err}
	}
	log.Printf("Approve tx: %s", tx.Hash().Hex())

	if g.memo != nil {
		// approval is already submitted, memo errors are only logged
		if err := g.memo.Record(ctx, key, tx.Hash().Hex()); err != nil {
			log.Printf("Error recording approval %s: %s", tx.Hash().Hex(), err.Error())
		}
	}

	return tx, nil
}

// approvalInFlight trusts a memo entry only while its tx is pending.
// A mined approval shows up in the allowance, so an entry whose tx is no longer
// pending while the allowance reads zero belongs to a dropped or reverted approval.
func (g *Guard) approvalInFlight(ctx context.Context, chain, key string) (bool, error) {
	txHash, ok, err := g.memo.Recent(ctx, key)
	if err != nil {
		return false, &RemoteCallError{Chain: chain, Op: "approval memo", Err: err}
	}
	if !ok || g.txs == nil {
		return false, nil
	}
	pending, err := g.txs.TxPending(ctx, chain, common.HexToHash(txHash))
	if err != nil {
		return false, &RemoteCallError{Chain: chain, Op: "approval status", Err: err}
	}
	if !pending {
		log.Printf("Approval tx %s on %s is no longer pending and the allowance is zero", txHash, chain)
	}
	return pending, nil
}
