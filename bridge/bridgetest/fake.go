// Package bridgetest provides an in-memory ledger that implements every
// collaborator of the bridge package and records the calls made to it.
package bridgetest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"goomnicbridge/bridge"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

var ErrNotFound = errors.New("not found")

// Call is one recorded contract call.
type Call struct {
	Chain  string
	Method string
	Target common.Address
	Args   []interface{}
}

type Chain struct {
	ChainID   uint16
	Ledger    types.LedgerKind
	Contracts map[string]common.Address // symbol or contract name -> address
	PoolIDs   map[common.Address]*big.Int
}

// Ledger is a fake multi-chain world. Zero value is not usable, use New.
type Ledger struct {
	mu         sync.Mutex
	owner      common.Address
	chains     map[string]*Chain
	allowances map[string]*big.Int
	calls      []Call
	nonce      uint64
	pending    map[common.Hash]bool

	AllowanceErr error
	ApproveErr   error
	PoolErr      error
	SwapErr      error
	// ApproveSetsAllowance makes approvals visible to later allowance reads.
	ApproveSetsAllowance bool
	// ApproveHook runs before every approval, an error fails it.
	ApproveHook func(ctx context.Context) error
}

func New(owner common.Address) *Ledger {
	return &Ledger{
		owner:      owner,
		chains:     map[string]*Chain{},
		allowances: map[string]*big.Int{},
		pending:    map[common.Hash]bool{},
	}
}

// AddChain registers a chain. Addresses of contracts are derived from the chain id.
func (l *Ledger) AddChain(name string, id uint16, kind types.LedgerKind) *Chain {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &Chain{
		ChainID:   id,
		Ledger:    kind,
		Contracts: map[string]common.Address{},
		PoolIDs:   map[common.Address]*big.Int{},
	}
	if kind == types.LEDGER_EVM {
		c.Contracts["ROUTER"] = deriveAddress(id, 1)
		c.Contracts["FACTORYPOOL"] = deriveAddress(id, 2)
	}
	l.chains[name] = c
	return c
}

// AddToken deploys a token with a pool on an EVM chain.
func (l *Ledger) AddToken(chain, symbol string, poolID int64) common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.chains[chain]
	addr := deriveAddress(c.ChainID, uint16(10+len(c.Contracts)))
	c.Contracts[strings.ToUpper(symbol)] = addr
	c.PoolIDs[addr] = big.NewInt(poolID)
	return addr
}

func (l *Ledger) SetAllowance(token, spender common.Address, v *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey(token, l.owner, spender)] = v
}

func deriveAddress(id uint16, n uint16) common.Address {
	return common.BigToAddress(big.NewInt(int64(id)<<16 | int64(n)))
}

func allowanceKey(token, owner, spender common.Address) string {
	return token.Hex() + owner.Hex() + spender.Hex()
}

func (l *Ledger) record(c Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// CallsTo returns the recorded calls of a method, in order.
func (l *Ledger) CallsTo(method string) []Call {
	out := []Call{}
	for _, c := range l.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (l *Ledger) nextTx() *ethtypes.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nonce++
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{Nonce: l.nonce, Gas: 21000, GasPrice: big.NewInt(1)})
	l.pending[tx.Hash()] = true
	return tx
}

// Drop takes a submitted tx out of the mempool without executing it, the way a
// dropped or reverted approval looks to the guard.
func (l *Ledger) Drop(txHash common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, txHash)
}

// TxStatus

func (l *Ledger) TxPending(_ context.Context, chain string, txHash common.Hash) (bool, error) {
	l.record(Call{Chain: chain, Method: "txPending", Args: []interface{}{txHash}})
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[txHash], nil
}

// AddressResolver

func (l *Ledger) Resolve(chain, symbol string) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.chains[chain]
	if !ok {
		return common.Address{}, fmt.Errorf("chain %s: %w", chain, ErrNotFound)
	}
	addr, ok := c.Contracts[strings.ToUpper(symbol)]
	if !ok {
		return common.Address{}, fmt.Errorf("%s on %s: %w", symbol, chain, ErrNotFound)
	}
	return addr, nil
}

// ChainRegistry

func (l *Ledger) ChainID(chain string) (uint16, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.chains[chain]
	if !ok {
		return 0, fmt.Errorf("chain %s: %w", chain, ErrNotFound)
	}
	return c.ChainID, nil
}

func (l *Ledger) Ledger(chain string) (types.LedgerKind, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.chains[chain]
	if !ok {
		return -1, fmt.Errorf("chain %s: %w", chain, ErrNotFound)
	}
	return c.Ledger, nil
}

// Contracts

func (l *Ledger) Owner() common.Address { return l.owner }

func (l *Ledger) Token(chain string, addr common.Address) (bridge.Token, error) {
	return &token{l: l, chain: chain, addr: addr}, nil
}

func (l *Ledger) Factory(chain string, addr common.Address) (bridge.Factory, error) {
	return &factory{l: l, chain: chain, addr: addr}, nil
}

func (l *Ledger) Router(chain string, addr common.Address) (bridge.Router, error) {
	return &router{l: l, chain: chain, addr: addr}, nil
}

type token struct {
	l     *Ledger
	chain string
	addr  common.Address
}

func (t *token) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	t.l.record(Call{Chain: t.chain, Method: "allowance", Target: t.addr, Args: []interface{}{owner, spender}})
	if t.l.AllowanceErr != nil {
		return nil, t.l.AllowanceErr
	}
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	if v, ok := t.l.allowances[allowanceKey(t.addr, owner, spender)]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (t *token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	t.l.record(Call{Chain: t.chain, Method: "approve", Target: t.addr, Args: []interface{}{spender, amount}})
	if t.l.ApproveHook != nil {
		if err := t.l.ApproveHook(ctx); err != nil {
			return nil, err
		}
	}
	if t.l.ApproveErr != nil {
		return nil, t.l.ApproveErr
	}
	if t.l.ApproveSetsAllowance {
		t.l.SetAllowance(t.addr, spender, amount)
	}
	return t.l.nextTx(), nil
}

type factory struct {
	l     *Ledger
	chain string
	addr  common.Address
}

func (f *factory) GetPoolId(_ context.Context, tokenAddr common.Address) (*big.Int, error) {
	f.l.record(Call{Chain: f.chain, Method: "getPoolId", Target: f.addr, Args: []interface{}{tokenAddr}})
	if f.l.PoolErr != nil {
		return nil, f.l.PoolErr
	}
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	c, ok := f.l.chains[f.chain]
	if !ok {
		return nil, ErrNotFound
	}
	if id, ok := c.PoolIDs[tokenAddr]; ok {
		return new(big.Int).Set(id), nil
	}
	return big.NewInt(0), nil
}

type router struct {
	l     *Ledger
	chain string
	addr  common.Address
}

func (r *router) Swap(_ context.Context, args bridge.SwapArgs) (*ethtypes.Transaction, error) {
	r.l.record(Call{Chain: r.chain, Method: "swap", Target: r.addr, Args: []interface{}{args}})
	if r.l.SwapErr != nil {
		return nil, r.l.SwapErr
	}
	return r.l.nextTx(), nil
}
