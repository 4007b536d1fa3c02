package handlers

import (
	"fmt"
	"log"
	"net/http"

	"goomnicbridge/types"

	"github.com/go-chi/chi"
)

// BalanceEVM shows how much of a token the signer holds on a chain, in base units.
func BalanceEVM(w http.ResponseWriter, r *http.Request) {
	chainName := chi.URLParam(r, "chain")
	symbol := chi.URLParam(r, "token")

	chain, err := chains.Chain(chainName)
	if err != nil || chain.Ledger != types.LEDGER_EVM {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "chain",
			Message: "EVM chain not provided or not supported",
		}, http.StatusBadRequest)
		return
	}

	tokenAddr, err := chains.Resolve(chain.Name, symbol)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "token",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	balance, err := balances.TokenBalance(r.Context(), chain.Name, tokenAddr)
	if err != nil {
		log.Println(fmt.Sprintf("Error getting balance: %s", err))
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}

	responseJSON(w, &APIBalanceResponse{
		Chain:   chain.Name,
		Token:   symbol,
		Owner:   balances.Owner().Hex(),
		Balance: balance.String(),
	}, http.StatusOK)
}
