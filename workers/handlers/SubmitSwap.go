package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"goomnicbridge/bridge"
	"goomnicbridge/redis"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type SwapRequest struct {
	SourceChain string `json:"sourceChain"`
	Token       string `json:"token"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`    // decimal, token base units
	Recipient   string `json:"recipient"` // hex address or principal on the destination, padded to 32 bytes here
}

// SubmitSwap validates a swap request and queues it for the execution worker.
func SubmitSwap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req SwapRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	source, err := chains.Chain(req.SourceChain)
	if err != nil || source.Ledger != types.LEDGER_EVM {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "sourceChain",
			Message: "EVM chain not provided or not supported",
		}, http.StatusBadRequest)
		return
	}

	destination, err := chains.Chain(req.Destination)
	if err != nil || destination.Name == source.Name {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "destination",
			Message: "Destination chain not provided or not supported",
		}, http.StatusBadRequest)
		return
	}

	if _, err := chains.Resolve(source.Name, req.Token); err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "token",
			Message: "Token not supported on source chain",
		}, http.StatusBadRequest)
		return
	}

	amount, err := bridge.ParseAmount(req.Amount)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "amount",
			Message: "Amount must be a positive integer in token base units",
		}, http.StatusBadRequest)
		return
	}

	recipient, err := bridge.PadRecipient(req.Recipient)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "recipient",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	rec := &types.SwapRecord{
		Status:      "pending",
		SourceChain: source.Name,
		Token:       req.Token,
		Destination: destination.Name,
		Amount:      amount.String(),
		Recipient:   hexutil.Encode(recipient[:]),
	}
	err = redis.UpsertSwapRecord(rec)
	if err != nil {
		log.Printf("Cannot create pending swap, Redis error: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot store swap request",
		}, http.StatusInternalServerError)
		return
	}
	log.Printf("Queued swap %s: %s %s from %s to %s", rec.ID, rec.Amount, rec.Token, rec.SourceChain, rec.Destination)

	responseJSON(w, &APISwapResponse{
		Status: "ok",
		ID:     rec.ID,
	}, http.StatusAccepted)
}
