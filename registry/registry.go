// Package registry holds the static lookup tables of the bridge: chain name to
// protocol chain id and ledger kind, and (chain, symbol or contract name) to
// deployed address. Tables are built once from config and never change, so a
// Registry is safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"goomnicbridge/config"
	"goomnicbridge/types"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownChain    = errors.New("unknown chain")
	ErrUnknownContract = errors.New("unknown contract")
)

type Chain struct {
	Name             string
	ChainID          uint16
	Ledger           types.LedgerKind
	EVMChainID       int64
	RPCList          []string
	GasLimit         uint64
	MinConfirmations int
	contracts        map[string]common.Address // keyed by upper cased symbol or contract name
}

type Registry struct {
	chains map[string]*Chain
}

// New validates the configured chains and builds the lookup tables.
// EVM chains must have RPC endpoints, a Router and a FactoryPool.
func New(chains map[string]config.ChainConfig) (*Registry, error) {
	r := &Registry{chains: make(map[string]*Chain, len(chains))}
	seenIDs := map[uint16]string{}

	for name, cc := range chains {
		key := normalize(name)
		kind, ok := types.ParseLedgerKind(cc.Ledger)
		if !ok {
			return nil, fmt.Errorf("chain %s: unsupported ledger %q", key, cc.Ledger)
		}
		if other, dup := seenIDs[cc.ChainID]; dup {
			return nil, fmt.Errorf("chain %s: chain id %d already used by %s", key, cc.ChainID, other)
		}
		seenIDs[cc.ChainID] = key

		chain := &Chain{
			Name:             key,
			ChainID:          cc.ChainID,
			Ledger:           kind,
			EVMChainID:       cc.EVMChainID,
			RPCList:          cc.RPCList,
			GasLimit:         cc.GasLimit,
			MinConfirmations: cc.MinConfirmations,
			contracts:        make(map[string]common.Address, len(cc.Contracts)),
		}

		for symbol, addr := range cc.Contracts {
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("chain %s: %s address %q is not hex", key, symbol, addr)
			}
			if err := ethav.Validate(common.HexToAddress(addr).Hex()); err != nil {
				return nil, fmt.Errorf("chain %s: %s address %q: %w", key, symbol, addr, err)
			}
			chain.contracts[strings.ToUpper(symbol)] = common.HexToAddress(addr)
		}

		if kind == types.LEDGER_EVM {
			if len(chain.RPCList) == 0 {
				return nil, fmt.Errorf("chain %s: no rpc endpoints", key)
			}
			for _, c := range []string{config.CONTRACT_ROUTER, config.CONTRACT_FACTORY} {
				if _, ok := chain.contracts[strings.ToUpper(c)]; !ok {
					return nil, fmt.Errorf("chain %s: missing %s address", key, c)
				}
			}
		}

		r.chains[key] = chain
	}

	return r, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Chain(name string) (*Chain, error) {
	chain, ok := r.chains[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChain, name)
	}
	return chain, nil
}

func (r *Registry) ChainID(name string) (uint16, error) {
	chain, err := r.Chain(name)
	if err != nil {
		return 0, err
	}
	return chain.ChainID, nil
}

func (r *Registry) Ledger(name string) (types.LedgerKind, error) {
	chain, err := r.Chain(name)
	if err != nil {
		return -1, err
	}
	return chain.Ledger, nil
}

// Resolve returns the address deployed for a token symbol or contract name on a chain.
// Source and destination tokens of a swap are looked up with the same symbol, so a token
// bridged between two chains must be registered under one symbol on both.
func (r *Registry) Resolve(chainName, symbol string) (common.Address, error) {
	chain, err := r.Chain(chainName)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := chain.contracts[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s on %s", ErrUnknownContract, symbol, chain.Name)
	}
	return addr, nil
}

// Names returns the configured chains in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Symbols lists the tokens registered on a chain, without contract names.
func (c *Chain) Symbols() []string {
	symbols := []string{}
	for s := range c.contracts {
		if s == strings.ToUpper(config.CONTRACT_ROUTER) || s == strings.ToUpper(config.CONTRACT_FACTORY) {
			continue
		}
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
