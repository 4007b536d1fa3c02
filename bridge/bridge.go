// Package bridge orchestrates cross-chain swaps: it makes sure the router may
// move the signer's tokens, resolves the liquidity pool ids on both ledgers
// and submits the router swap. Contract calls, address lookups and chain ids
// come from the collaborators declared below.
package bridge

import (
	"context"
	"math/big"

	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ApprovalCeiling is what the router gets approved for before a swap.
// It does not depend on the swapped amount, one approval serves many swaps.
var ApprovalCeiling = big.NewInt(1_000_000_000_000_000)

type AddressResolver interface {
	Resolve(chain, symbolOrContract string) (common.Address, error)
}

type ChainRegistry interface {
	ChainID(chain string) (uint16, error)
	Ledger(chain string) (types.LedgerKind, error)
}

type Token interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error)
}

type Factory interface {
	GetPoolId(ctx context.Context, token common.Address) (*big.Int, error)
}

type SwapArgs struct {
	DstChainID  uint16
	SrcPoolID   *big.Int
	DstPoolID   *big.Int
	AmountLD    *big.Int
	MinAmountLD *big.Int
	To          [32]byte
}

type Router interface {
	Swap(ctx context.Context, args SwapArgs) (*ethtypes.Transaction, error)
}

// Contracts binds contract addresses on a chain to callable contracts.
// Owner is the account that signs approvals and swaps.
type Contracts interface {
	Owner() common.Address
	Token(chain string, addr common.Address) (Token, error)
	Factory(chain string, addr common.Address) (Factory, error)
	Router(chain string, addr common.Address) (Router, error)
}
