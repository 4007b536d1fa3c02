package workers

import (
	"context"
	"math/big"
	"testing"

	"goomnicbridge/bridge"
	"goomnicbridge/bridge/bridgetest"
	"goomnicbridge/config"
	"goomnicbridge/redis"
	"goomnicbridge/registry"
	"goomnicbridge/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var owner = common.HexToAddress("0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A")

func setupRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.Connect(mr.Addr())
	t.Cleanup(func() { WorkerShutdown.Store(false) })
}

func testLedger() *bridgetest.Ledger {
	l := bridgetest.New(owner)
	l.AddChain("chaina", 101, types.LEDGER_EVM)
	l.AddChain("chainb", 102, types.LEDGER_EVM)
	l.AddChain("ic", 0, types.LEDGER_EXTERNAL)
	l.AddToken("chaina", "USDT", 1)
	l.AddToken("chainb", "USDT", 7)
	return l
}

func queueSwap(t *testing.T, token, destination string) *types.SwapRecord {
	t.Helper()
	to, err := bridge.PadRecipient("0xcfbc317dc8c4444e98b7f367cad3f5ed75574677ffe4013634a4915002")
	require.NoError(t, err)
	rec := &types.SwapRecord{
		Status:      "pending",
		SourceChain: "chaina",
		Token:       token,
		Destination: destination,
		Amount:      "1000000",
		Recipient:   hexutil.Encode(to[:]),
	}
	require.NoError(t, redis.UpsertSwapRecord(rec))
	return rec
}

func TestProcessNextSwapSubmits(t *testing.T) {
	setupRedis(t)
	l := testLedger()
	rec := queueSwap(t, "USDT", "chainb")

	found, err := processNextSwap(context.Background(), bridge.NewDispatcher(l, l, l, nil))
	require.NoError(t, err)
	require.True(t, found)

	stored, err := redis.FindSwapRecordByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", stored.Status)
	require.NotEmpty(t, stored.SwapTxHash)
	require.NotEmpty(t, stored.ApproveTxHash)
	require.Equal(t, "1", stored.SrcPoolID)
	require.Equal(t, "7", stored.DstPoolID)

	swaps := l.CallsTo("swap")
	require.Len(t, swaps, 1)
	args := swaps[0].Args[0].(bridge.SwapArgs)
	require.Equal(t, int64(1_000_000), args.AmountLD.Int64())
	require.Equal(t, uint16(102), args.DstChainID)

	// queue is empty now
	found, err = processNextSwap(context.Background(), bridge.NewDispatcher(l, l, l, nil))
	require.NoError(t, err)
	require.False(t, found)
}

func TestProcessNextSwapRecordsFailure(t *testing.T) {
	setupRedis(t)
	l := testLedger()
	rec := queueSwap(t, "DAI", "ic")

	found, err := processNextSwap(context.Background(), bridge.NewDispatcher(l, l, l, nil))
	require.NoError(t, err)
	require.True(t, found)

	stored, err := redis.FindSwapRecordByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, "failed", stored.Status)
	require.Contains(t, stored.Message, "resolution error")
	require.Empty(t, l.CallsTo("approve"))
	require.Empty(t, l.CallsTo("swap"))
}

func TestProcessNextSwapGuardFailure(t *testing.T) {
	setupRedis(t)
	l := testLedger()
	l.ApproveErr = errorString("nonce too low")
	rec := queueSwap(t, "USDT", "ic")

	_, err := processNextSwap(context.Background(), bridge.NewDispatcher(l, l, l, nil))
	require.NoError(t, err)

	stored, err := redis.FindSwapRecordByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, "failed", stored.Status)
	require.Contains(t, stored.Message, "guard error")
	require.Contains(t, stored.Message, "nonce too low")
}

type errorString string

func (e errorString) Error() string { return string(e) }

type fakeReader struct {
	head     uint64
	receipts map[common.Hash]*ethtypes.Receipt
}

func (f *fakeReader) BlockNumber(_ context.Context, _ string) (uint64, error) {
	return f.head, nil
}

func (f *fakeReader) TransactionReceipt(_ context.Context, _ string, txHash common.Hash) (*ethtypes.Receipt, error) {
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(map[string]config.ChainConfig{
		"chaina": {
			ChainID:          101,
			Ledger:           "evm",
			RPCList:          []string{"http://127.0.0.1:8545"},
			MinConfirmations: 3,
			Contracts: map[string]string{
				"Router":      "0x00000000000000000000000000000000000000a1",
				"FactoryPool": "0x00000000000000000000000000000000000000a2",
				"USDT":        "0x00000000000000000000000000000000000000a3",
			},
		},
		"ic": {ChainID: 0, Ledger: "ic"},
	})
	require.NoError(t, err)
	return reg
}

func submittedSwap(t *testing.T, txHash common.Hash) *types.SwapRecord {
	t.Helper()
	rec := &types.SwapRecord{Status: "submitted", SourceChain: "chaina", Token: "USDT", Destination: "ic", Amount: "1", SwapTxHash: txHash.Hex()}
	require.NoError(t, redis.UpsertSwapRecord(rec))
	return rec
}

func TestTrackSubmittedSwaps(t *testing.T) {
	setupRedis(t)
	reg := testRegistry(t)

	okHash := common.HexToHash("0x01")
	revertHash := common.HexToHash("0x02")
	freshHash := common.HexToHash("0x03")
	mempoolHash := common.HexToHash("0x04")

	okRec := submittedSwap(t, okHash)
	revertRec := submittedSwap(t, revertHash)
	freshRec := submittedSwap(t, freshHash)
	mempoolRec := submittedSwap(t, mempoolHash)

	reader := &fakeReader{
		head: 100,
		receipts: map[common.Hash]*ethtypes.Receipt{
			okHash:     {Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(90)},
			revertHash: {Status: ethtypes.ReceiptStatusFailed, BlockNumber: big.NewInt(98)},
			// two confirmations only
			freshHash: {Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(99)},
		},
	}

	require.NoError(t, trackSubmittedSwaps(context.Background(), reg, reader))

	status := func(id string) string {
		rec, err := redis.FindSwapRecordByID(id)
		require.NoError(t, err)
		return rec.Status
	}
	require.Equal(t, "confirmed", status(okRec.ID))
	require.Equal(t, "reverted", status(revertRec.ID))
	require.Equal(t, "submitted", status(freshRec.ID))
	require.Equal(t, "submitted", status(mempoolRec.ID))

	reverted, err := redis.FindSwapRecordByID(revertRec.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(98), reverted.ConfirmedBlock)
	require.Contains(t, reverted.Message, "reverted")

	reader.head = 101
	require.NoError(t, trackSubmittedSwaps(context.Background(), reg, reader))
	require.Equal(t, "confirmed", status(freshRec.ID))
}
