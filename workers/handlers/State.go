package handlers

import (
	"net/http"

	"goomnicbridge/EVMRPC"
)

func State(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIStateResponse{
		Status: "ok",
	}, http.StatusOK)
}

// RPCState probes every configured EVM endpoint.
func RPCState(w http.ResponseWriter, r *http.Request) {
	statuses := EVMRPC.ProbeAll()

	code := http.StatusOK
	for _, st := range statuses {
		if !st.Healthy {
			code = http.StatusServiceUnavailable
		}
	}
	responseJSON(w, statuses, code)
}

func Chains(w http.ResponseWriter, r *http.Request) {
	res := make([]APIChain, 0)
	for _, name := range chains.Names() {
		chain, err := chains.Chain(name)
		if err != nil {
			continue
		}
		res = append(res, APIChain{
			Name:             chain.Name,
			ChainID:          chain.ChainID,
			Ledger:           chain.Ledger.String(),
			EVMChainID:       chain.EVMChainID,
			MinConfirmations: chain.MinConfirmations,
			Tokens:           chain.Symbols(),
		})
	}
	responseJSON(w, res, http.StatusOK)
}
