package EVMRPC

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"goomnicbridge/bridge"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// only the methods the bridge calls
const ERC20ABI = `[
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const FactoryPoolABI = `[
{"type":"function","name":"getPoolId","stateMutability":"view","inputs":[{"name":"tokenAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const RouterABI = `[
{"type":"function","name":"swap","stateMutability":"nonpayable","inputs":[{"name":"_dstChainId","type":"uint16"},{"name":"_srcPoolId","type":"uint256"},{"name":"_dstPoolId","type":"uint256"},{"name":"_amountLD","type":"uint256"},{"name":"_minAmountLD","type":"uint256"},{"name":"_to","type":"bytes32"}],"outputs":[]}
]`

var (
	erc20ABI   = mustParseABI(ERC20ABI)
	factoryABI = mustParseABI(FactoryPoolABI)
	routerABI  = mustParseABI(RouterABI)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Backend signs with one key on every configured chain and implements bridge.Contracts.
type Backend struct {
	key   *ecdsa.PrivateKey
	owner common.Address

	mu         sync.Mutex
	writeLocks map[string]*sync.Mutex
}

// NewBackend loads the signer. If publicAddress is set it must match the key.
func NewBackend(privateKeyHex string, publicAddress string) (*Backend, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %s", err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)
	if publicAddress != "" && common.HexToAddress(publicAddress) != owner {
		return nil, fmt.Errorf("private key belongs to %s, configured address is %s", owner.Hex(), publicAddress)
	}
	return &Backend{
		key:        key,
		owner:      owner,
		writeLocks: map[string]*sync.Mutex{},
	}, nil
}

func (b *Backend) Owner() common.Address {
	return b.owner
}

// lockWrites serializes transactions of the signer on one chain so nonces don't collide.
func (b *Backend) lockWrites(chain string) func() {
	b.mu.Lock()
	l, ok := b.writeLocks[chain]
	if !ok {
		l = &sync.Mutex{}
		b.writeLocks[chain] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Backend) transactOpts(ctx context.Context, chain string) (*bind.TransactOpts, error) {
	cc, err := chainConfig(chain)
	if err != nil {
		return nil, err
	}
	auth, err := bind.NewKeyedTransactorWithChainID(b.key, big.NewInt(cc.EVMChainID))
	if err != nil {
		return nil, fmt.Errorf("error instantiating contract call: %s", err)
	}
	auth.Context = ctx
	auth.Value = big.NewInt(0)
	// zero lets bind estimate the gas
	auth.GasLimit = cc.GasLimit
	return auth, nil
}

func (b *Backend) transact(ctx context.Context, chain string, addr common.Address, contractABI abi.ABI, method string, params ...interface{}) (*ethtypes.Transaction, error) {
	unlock := b.lockWrites(strings.ToLower(chain))
	defer unlock()

	return WithWriteClient(ctx, chain, func(client *ethclient.Client) (*ethtypes.Transaction, error) {
		auth, err := b.transactOpts(ctx, chain)
		if err != nil {
			return nil, err
		}
		contract := bind.NewBoundContract(addr, contractABI, client, client, client)
		return contract.Transact(auth, method, params...)
	})
}

func callUint256(ctx context.Context, chain string, addr common.Address, contractABI abi.ABI, method string, params ...interface{}) (*big.Int, error) {
	return WithClient(ctx, chain, func(client *ethclient.Client) (*big.Int, error) {
		contract := bind.NewBoundContract(addr, contractABI, client, client, client)
		var out []interface{}
		// pending state includes approvals still in the mempool
		err := contract.Call(&bind.CallOpts{Context: ctx, Pending: true}, &out, method, params...)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%s returned nothing", method)
		}
		return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
	})
}

func (b *Backend) Token(chain string, addr common.Address) (bridge.Token, error) {
	if _, err := chainConfig(chain); err != nil {
		return nil, err
	}
	return &erc20{b: b, chain: chain, addr: addr}, nil
}

func (b *Backend) Factory(chain string, addr common.Address) (bridge.Factory, error) {
	if _, err := chainConfig(chain); err != nil {
		return nil, err
	}
	return &factoryPool{chain: chain, addr: addr}, nil
}

func (b *Backend) Router(chain string, addr common.Address) (bridge.Router, error) {
	if _, err := chainConfig(chain); err != nil {
		return nil, err
	}
	return &router{b: b, chain: chain, addr: addr}, nil
}

func (b *Backend) TxPending(ctx context.Context, chain string, txHash common.Hash) (bool, error) {
	return TransactionPending(ctx, chain, txHash)
}

type erc20 struct {
	b     *Backend
	chain string
	addr  common.Address
}

func (t *erc20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callUint256(ctx, t.chain, t.addr, erc20ABI, "allowance", owner, spender)
}

func (t *erc20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	return t.b.transact(ctx, t.chain, t.addr, erc20ABI, "approve", spender, amount)
}

// BalanceOf is used by the API to show what the signer holds.
func (t *erc20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callUint256(ctx, t.chain, t.addr, erc20ABI, "balanceOf", account)
}

type factoryPool struct {
	chain string
	addr  common.Address
}

func (f *factoryPool) GetPoolId(ctx context.Context, token common.Address) (*big.Int, error) {
	return callUint256(ctx, f.chain, f.addr, factoryABI, "getPoolId", token)
}

type router struct {
	b     *Backend
	chain string
	addr  common.Address
}

func (r *router) Swap(ctx context.Context, args bridge.SwapArgs) (*ethtypes.Transaction, error) {
	return r.b.transact(ctx, r.chain, r.addr, routerABI, "swap",
		args.DstChainID, args.SrcPoolID, args.DstPoolID, args.AmountLD, args.MinAmountLD, args.To)
}

// TokenBalance reads the ERC20 balance of the signer.
func (b *Backend) TokenBalance(ctx context.Context, chain string, token common.Address) (*big.Int, error) {
	t := &erc20{b: b, chain: chain, addr: token}
	return t.BalanceOf(ctx, b.owner)
}
