package handlers

import (
	"context"
	"math/big"

	"goomnicbridge/registry"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type APIStateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type APISwapResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type APIApproveResponse struct {
	Status string `json:"status"`
	// empty when the spender was already approved
	TxHash string `json:"txHash,omitempty"`
}

type APIChain struct {
	Name             string   `json:"name"`
	ChainID          uint16   `json:"chainId"`
	Ledger           string   `json:"ledger"`
	EVMChainID       int64    `json:"evmChainId,omitempty"`
	MinConfirmations int      `json:"minConfirmations,omitempty"`
	Tokens           []string `json:"tokens"`
}

type APIBalanceResponse struct {
	Chain   string `json:"chain"`
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// Approver is satisfied by *bridge.Guard.
type Approver interface {
	EnsureApproved(ctx context.Context, chain, symbol string, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error)
}

// BalanceReader is satisfied by *EVMRPC.Backend.
type BalanceReader interface {
	Owner() common.Address
	TokenBalance(ctx context.Context, chain string, token common.Address) (*big.Int, error)
}

var (
	chains   *registry.Registry
	approver Approver
	balances BalanceReader
)

// Init hands the handlers what they serve. It is called once before the HTTP worker starts.
func Init(reg *registry.Registry, a Approver, b BalanceReader) {
	chains = reg
	approver = a
	balances = b
}
