package types

import (
	"math/big"
	"strings"
)

// LedgerKind tells how a chain settles bridged tokens.
// EVM chains expose a FactoryPool, the external ledger (IC) does not.
type LedgerKind int

const LEDGER_EVM LedgerKind = 0
const LEDGER_EXTERNAL LedgerKind = 1

func (k LedgerKind) String() string {
	switch k {
	case LEDGER_EVM:
		return "evm"
	case LEDGER_EXTERNAL:
		return "ic"
	default:
		return "unknown"
	}
}

// ParseLedgerKind accepts the values used in config.yml.
func ParseLedgerKind(s string) (LedgerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "evm":
		return LEDGER_EVM, true
	case "ic", "external":
		return LEDGER_EXTERNAL, true
	}
	return -1, false
}

// SwapIntent is built for a single dispatch and dropped once the swap is submitted.
type SwapIntent struct {
	SourceChain string
	Token       string
	Destination string
	Amount      *big.Int
	Recipient   [32]byte // destination ledger address, left padded
}

// Swap record is the journaled form of a swap requested through the HTTP API.
// Records live in Redis keyed by status, like the rest of the bridge state.
type SwapRecord struct {
	ID             string
	Status         string
	SourceChain    string
	Token          string
	Destination    string
	Amount         string // amount in token base units (LD)
	Recipient      string // 0x prefixed 32 byte hex
	ApproveTxHash  string // filled when the guard had to approve the router
	SwapTxHash     string
	SrcPoolID      string
	DstPoolID      string
	TsCreated      int64
	TsUpdated      int64
	ConfirmedBlock uint64
	Message        string // messages that help to track processing/errors
}

func (r *SwapRecord) AppendMessage(msg string) {
	if r.Message == "" {
		r.Message = msg
	} else {
		r.Message += "; " + msg
	}
}
