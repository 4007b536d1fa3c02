package bridge

import (
	"context"
	"fmt"
	"math/big"

	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
)

// Destination is the ledger a swap credits. The set of implementations is closed:
// EVMChain and ExternalLedger. Adding a ledger kind means adding a type here and
// a case in destinationFor.
type Destination interface {
	Chain() string
	Kind() types.LedgerKind
	poolID(ctx context.Context, d *Dispatcher, symbol string) (*big.Int, error)
}

// EVMChain resolves the pool id through its own FactoryPool contract.
type EVMChain struct {
	Name string
}

func (c EVMChain) Chain() string          { return c.Name }
func (c EVMChain) Kind() types.LedgerKind { return types.LEDGER_EVM }

func (c EVMChain) poolID(ctx context.Context, d *Dispatcher, symbol string) (*big.Int, error) {
	tokenAddr, err := d.resolver.Resolve(c.Name, symbol)
	if err != nil {
		return nil, &ResolutionError{Chain: c.Name, Name: symbol, Err: fmt.Errorf("%w: %v", ErrSymbolParity, err)}
	}
	return d.lookupPoolID(ctx, c.Name, symbol, tokenAddr)
}

// ExternalLedger is the non-EVM ledger (IC). Its pools are not known to the EVM
// factories, the router expects pool id 0 for it.
type ExternalLedger struct {
	Name string
}

// ExternalPoolID is the pool id sent to the router for the external ledger.
var ExternalPoolID = big.NewInt(0)

func (l ExternalLedger) Chain() string          { return l.Name }
func (l ExternalLedger) Kind() types.LedgerKind { return types.LEDGER_EXTERNAL }

func (l ExternalLedger) poolID(context.Context, *Dispatcher, string) (*big.Int, error) {
	return new(big.Int).Set(ExternalPoolID), nil
}

func destinationFor(registry ChainRegistry, chain string) (Destination, error) {
	kind, err := registry.Ledger(chain)
	if err != nil {
		return nil, &ResolutionError{Chain: chain, Name: "ledger", Err: err}
	}
	switch kind {
	case types.LEDGER_EVM:
		return EVMChain{Name: chain}, nil
	case types.LEDGER_EXTERNAL:
		return ExternalLedger{Name: chain}, nil
	}
	return nil, &ResolutionError{Chain: chain, Name: "ledger", Err: fmt.Errorf("%w: %s", ErrUnsupportedLedger, kind)}
}

func (d *Dispatcher) lookupPoolID(ctx context.Context, chain, symbol string, tokenAddr common.Address) (*big.Int, error) {
	factoryAddr, err := d.resolver.Resolve(chain, config.CONTRACT_FACTORY)
	if err != nil {
		return nil, &ResolutionError{Chain: chain, Name: config.CONTRACT_FACTORY, Err: err}
	}
	factory, err := d.contracts.Factory(chain, factoryAddr)
	if err != nil {
		return nil, &ResolutionError{Chain: chain, Name: "pool id of " + symbol, Err: err}
	}
	poolID, err := factory.GetPoolId(ctx, tokenAddr)
	if err != nil {
		return nil, &ResolutionError{
			Chain: chain,
			Name:  "pool id of " + symbol,
			Err:   &RemoteCallError{Chain: chain, Op: "getPoolId", Err: err},
		}
	}
	return poolID, nil
}
