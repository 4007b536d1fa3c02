package registry

import (
	"errors"
	"testing"

	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testChains() map[string]config.ChainConfig {
	return map[string]config.ChainConfig{
		"chainA": {
			ChainID: 101,
			RPCList: []string{"http://a.local"},
			Contracts: map[string]string{
				"Router":      "0x00000000000000000000000000000000000000a1",
				"FactoryPool": "0x00000000000000000000000000000000000000a2",
				"USDT":        "0x00000000000000000000000000000000000000a3",
			},
		},
		"ic": {ChainID: 0, Ledger: "ic"},
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	r, err := New(testChains())
	require.NoError(t, err)

	addr, err := r.Resolve("ChainA", "usdt")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000a3"), addr)

	router, err := r.Resolve("chaina", config.CONTRACT_ROUTER)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000a1"), router)
}

func TestResolveFailsClosed(t *testing.T) {
	r, err := New(testChains())
	require.NoError(t, err)

	_, err = r.Resolve("chainA", "DAI")
	require.True(t, errors.Is(err, ErrUnknownContract))

	_, err = r.Resolve("chainZ", "USDT")
	require.True(t, errors.Is(err, ErrUnknownChain))

	_, err = r.ChainID("chainZ")
	require.True(t, errors.Is(err, ErrUnknownChain))
}

func TestChainIDAndLedger(t *testing.T) {
	r, err := New(testChains())
	require.NoError(t, err)

	id, err := r.ChainID("chainA")
	require.NoError(t, err)
	require.Equal(t, uint16(101), id)

	kind, err := r.Ledger("ic")
	require.NoError(t, err)
	require.Equal(t, types.LEDGER_EXTERNAL, kind)

	kind, err = r.Ledger("chainA")
	require.NoError(t, err)
	require.Equal(t, types.LEDGER_EVM, kind)

	require.Equal(t, []string{"chaina", "ic"}, r.Names())

	chain, err := r.Chain("chainA")
	require.NoError(t, err)
	require.Equal(t, []string{"USDT"}, chain.Symbols())
}

func TestNewValidation(t *testing.T) {
	cases := map[string]func(map[string]config.ChainConfig){
		"bad ledger": func(c map[string]config.ChainConfig) {
			ic := c["ic"]
			ic.Ledger = "solana"
			c["ic"] = ic
		},
		"duplicate chain id": func(c map[string]config.ChainConfig) {
			ic := c["ic"]
			ic.ChainID = 101
			c["ic"] = ic
		},
		"missing router": func(c map[string]config.ChainConfig) {
			delete(c["chainA"].Contracts, "Router")
		},
		"no rpc": func(c map[string]config.ChainConfig) {
			a := c["chainA"]
			a.RPCList = nil
			c["chainA"] = a
		},
		"bad address": func(c map[string]config.ChainConfig) {
			c["chainA"].Contracts["USDT"] = "0x1234"
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			chains := testChains()
			mutate(chains)
			_, err := New(chains)
			require.Error(t, err)
		})
	}
}
