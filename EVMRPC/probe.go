package EVMRPC

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ybbus/jsonrpc"
)

type EndpointStatus struct {
	Chain   string `json:"chain"`
	URL     string `json:"url"`
	ChainID uint64 `json:"chainId"`
	Block   uint64 `json:"block"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

var probeHTTPClient = &http.Client{Timeout: 5 * time.Second}

func callHexUint64(client jsonrpc.RPCClient, method string) (uint64, error) {
	resp, err := client.Call(method)
	if err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("%s: %s", method, resp.Error.Message)
	}
	s, err := resp.GetString()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	return hexutil.DecodeUint64(s)
}

// ProbeEndpoint asks one endpoint for its chain id and head block.
// The endpoint is healthy when it answers both and serves the expected chain.
func ProbeEndpoint(chain string, expectedChainID int64, url string) EndpointStatus {
	st := EndpointStatus{Chain: chain, URL: url}
	client := jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{HTTPClient: probeHTTPClient})

	id, err := callHexUint64(client, "eth_chainId")
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.ChainID = id

	block, err := callHexUint64(client, "eth_blockNumber")
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Block = block

	if expectedChainID != 0 && id != uint64(expectedChainID) {
		st.Error = fmt.Sprintf("endpoint serves chain %d, expected %d", id, expectedChainID)
		return st
	}
	st.Healthy = true
	return st
}

// ProbeAll probes every endpoint of every configured EVM chain, ordered by chain name.
func ProbeAll() []EndpointStatus {
	names := make([]string, 0, len(config.Config.Chains))
	for name := range config.Config.Chains {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make([]EndpointStatus, 0)
	for _, name := range names {
		cc := config.Config.Chains[name]
		if kind, ok := types.ParseLedgerKind(cc.Ledger); !ok || kind != types.LEDGER_EVM {
			continue
		}
		for _, url := range cc.RPCList {
			st := ProbeEndpoint(name, cc.EVMChainID, strings.TrimSpace(url))
			res = append(res, st)
		}
	}
	return res
}
