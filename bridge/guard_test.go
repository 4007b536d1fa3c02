package bridge_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"goomnicbridge/bridge"
	"goomnicbridge/bridge/bridgetest"
	"goomnicbridge/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

func guardLedger() (*bridgetest.Ledger, common.Address) {
	l := bridgetest.New(owner)
	l.AddChain("chainA", 101, types.LEDGER_EVM)
	token := l.AddToken("chainA", "USDT", 1)
	return l, token
}

func TestEnsureApprovedApprovesZeroAllowanceOnce(t *testing.T) {
	l, token := guardLedger()
	g := bridge.NewGuard(l, l)

	tx, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(500))
	require.NoError(t, err)
	require.NotNil(t, tx)

	require.Len(t, l.CallsTo("allowance"), 1)
	approvals := l.CallsTo("approve")
	require.Len(t, approvals, 1)
	require.Equal(t, token, approvals[0].Target)
	require.Equal(t, spender, approvals[0].Args[0])
	require.Equal(t, big.NewInt(500), approvals[0].Args[1])
}

func TestEnsureApprovedSkipsAnyNonZeroAllowance(t *testing.T) {
	for _, allowance := range []int64{1, 499, 500, 1_000_000} {
		l, token := guardLedger()
		l.SetAllowance(token, spender, big.NewInt(allowance))
		g := bridge.NewGuard(l, l)

		tx, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(500))
		require.NoError(t, err)
		require.Nil(t, tx)
		require.Len(t, l.CallsTo("allowance"), 1)
		require.Empty(t, l.CallsTo("approve"), "allowance %d", allowance)
	}
}

func TestEnsureApprovedUnknownToken(t *testing.T) {
	l, _ := guardLedger()
	g := bridge.NewGuard(l, l)

	_, err := g.EnsureApproved(context.Background(), "chainA", "DAI", spender, big.NewInt(1))
	var resErr *bridge.ResolutionError
	require.True(t, errors.As(err, &resErr))
	require.Equal(t, "DAI", resErr.Name)
	require.Empty(t, l.Calls())
}

func TestEnsureApprovedRemoteFailures(t *testing.T) {
	boom := errors.New("execution reverted")

	l, _ := guardLedger()
	l.AllowanceErr = boom
	_, err := bridge.NewGuard(l, l).EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(1))
	var remoteErr *bridge.RemoteCallError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, "allowance", remoteErr.Op)
	require.ErrorIs(t, err, boom)

	l, _ = guardLedger()
	l.ApproveErr = boom
	_, err = bridge.NewGuard(l, l).EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(1))
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, "approve", remoteErr.Op)
	require.Len(t, l.CallsTo("approve"), 1)
}

func TestEnsureApprovedRejectsNonPositiveAmount(t *testing.T) {
	l, _ := guardLedger()
	g := bridge.NewGuard(l, l)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		_, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, amount)
		require.ErrorIs(t, err, bridge.ErrInvalidAmount)
	}
	require.Empty(t, l.Calls())
}

func TestEnsureApprovedReapprovesAfterFailedMemoisedApproval(t *testing.T) {
	l, _ := guardLedger()
	g := bridge.NewGuard(l, l, bridge.WithMemo(bridge.NewMemoryMemo(time.Minute), l))

	first, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.NotNil(t, first)

	// the approval left the mempool without setting an allowance
	l.Drop(first.Hash())

	second, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.NotNil(t, second)
	require.NotEqual(t, first.Hash(), second.Hash())
	require.Len(t, l.CallsTo("allowance"), 2)
	require.Len(t, l.CallsTo("approve"), 2)

	// the memo now points at the new approval
	third, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.Nil(t, third)
	checks := l.CallsTo("txPending")
	require.Equal(t, second.Hash(), checks[len(checks)-1].Args[0])
	require.Len(t, l.CallsTo("approve"), 2)
}

func TestEnsureApprovedMemoSkipsOnlyPendingApproval(t *testing.T) {
	l, _ := guardLedger()
	g := bridge.NewGuard(l, l, bridge.WithMemo(bridge.NewMemoryMemo(time.Minute), l))

	first, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Empty(t, l.CallsTo("txPending"), "no memo entry on the first call")

	// allowance is still zero, the approval is not mined yet
	second, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.Nil(t, second)
	require.Len(t, l.CallsTo("allowance"), 2, "every call reads the allowance")
	require.Len(t, l.CallsTo("txPending"), 1)
	require.Len(t, l.CallsTo("approve"), 1)
}

func TestEnsureApprovedMemoIgnoredOnceAllowanceIsSet(t *testing.T) {
	l, token := guardLedger()
	g := bridge.NewGuard(l, l, bridge.WithMemo(bridge.NewMemoryMemo(time.Minute), l))

	_, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	l.SetAllowance(token, spender, big.NewInt(10))

	tx, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.Nil(t, tx)
	require.Empty(t, l.CallsTo("txPending"))
}

func TestEnsureApprovedDeadlineBoundsApprove(t *testing.T) {
	l, _ := guardLedger()
	var hadDeadline bool
	l.ApproveHook = func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	}
	g := bridge.NewGuard(l, l, bridge.WithDeadline(20*time.Millisecond))

	start := time.Now()
	_, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var remoteErr *bridge.RemoteCallError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, "approve", remoteErr.Op)
	require.True(t, hadDeadline)
	require.Less(t, time.Since(start), 5*time.Second)

	// the lock is released when the deadline fires
	l.ApproveHook = nil
	tx, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
	require.NoError(t, err)
	require.NotNil(t, tx)
}

func TestEnsureApprovedConcurrentCallsApproveOnce(t *testing.T) {
	l, _ := guardLedger()
	l.ApproveSetsAllowance = true
	g := bridge.NewGuard(l, l)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.EnsureApproved(context.Background(), "chainA", "USDT", spender, big.NewInt(10))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, l.CallsTo("approve"), 1)
	require.Len(t, l.CallsTo("allowance"), 16)
}
