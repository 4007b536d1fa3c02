package handlers

import (
	"encoding/json"
	"io"
	"log"
	"math/big"
	"net/http"

	"goomnicbridge/bridge"
	"goomnicbridge/config"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

type ApproveRequest struct {
	Chain string `json:"chain"`
	Token string `json:"token"`
	// defaults to the chain's Router
	Spender string `json:"spender"`
	// defaults to the ceiling used before swaps
	Amount string `json:"amount"`
}

// SubmitApprove runs the allowance guard right away and returns the approval tx, if any.
func SubmitApprove(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req ApproveRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	var spender common.Address
	if req.Spender == "" {
		spender, err = chains.Resolve(req.Chain, config.CONTRACT_ROUTER)
		if err != nil {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Field:   "chain",
				Message: "EVM chain not provided or not supported",
			}, http.StatusBadRequest)
			return
		}
	} else {
		if !common.IsHexAddress(req.Spender) {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Field:   "spender",
				Message: "Invalid spender address provided",
			}, http.StatusBadRequest)
			return
		}
		if err := ethav.Validate(common.HexToAddress(req.Spender).Hex()); err != nil {
			log.Printf("Error validating spender address '%s': %s\n", req.Spender, err.Error())
			responseJSON(w, &APIResponse{
				Status:  "error",
				Field:   "spender",
				Message: "Invalid spender address provided",
			}, http.StatusBadRequest)
			return
		}
		spender = common.HexToAddress(req.Spender)
	}

	amount := new(big.Int).Set(bridge.ApprovalCeiling)
	if req.Amount != "" {
		amount, err = bridge.ParseAmount(req.Amount)
		if err != nil {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Field:   "amount",
				Message: "Amount must be a positive integer in token base units",
			}, http.StatusBadRequest)
			return
		}
	}

	tx, err := approver.EnsureApproved(r.Context(), req.Chain, req.Token, spender, amount)
	if err != nil {
		log.Printf("Error approving %s on %s for %s: %s", req.Token, req.Chain, spender.Hex(), err.Error())
		code := http.StatusBadGateway
		if bridge.Classify(err) == "resolution" {
			code = http.StatusBadRequest
		}
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "token",
			Message: err.Error(),
		}, code)
		return
	}

	res := &APIApproveResponse{Status: "ok"}
	if tx != nil {
		res.TxHash = tx.Hash().Hex()
	}
	responseJSON(w, res, http.StatusOK)
}
