package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"goomnicbridge/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	Connect(mr.Addr())
	return mr
}

func TestUpsertAndFindByID(t *testing.T) {
	setup(t)

	rec := &types.SwapRecord{Status: "pending", SourceChain: "goerli", Token: "USDT", Destination: "ic", Amount: "1000000"}
	require.NoError(t, UpsertSwapRecord(rec))
	require.NotEmpty(t, rec.ID)
	require.NotZero(t, rec.TsCreated)

	found, err := FindSwapRecordByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Amount, found.Amount)
	require.Equal(t, "pending", found.Status)

	missing, err := FindSwapRecordByID("nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUpsertRejectsBadRecords(t *testing.T) {
	setup(t)

	require.Error(t, UpsertSwapRecord(nil))
	require.Error(t, UpsertSwapRecord(&types.SwapRecord{}))
	require.Error(t, UpsertSwapRecord(&types.SwapRecord{Status: "lost"}))
}

func TestChangeStatusMovesRecord(t *testing.T) {
	mr := setup(t)

	rec := &types.SwapRecord{Status: "pending", Amount: "5"}
	require.NoError(t, UpsertSwapRecord(rec))

	rec.Status = "submitted"
	rec.SwapTxHash = "0xabc"
	require.NoError(t, ChangeSwapRecordStatus(rec, "pending"))

	pending, err := FindAllSwapRecordsByStatus("pending")
	require.NoError(t, err)
	require.Empty(t, pending)

	submitted, err := FindAllSwapRecordsByStatus("submitted")
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	require.Equal(t, "0xabc", submitted[0].SwapTxHash)

	require.False(t, mr.Exists("swapop:pending:"+rec.ID))

	found, err := FindSwapRecordByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", found.Status)
}

func TestFindSwapRecordStatusReturnsOldest(t *testing.T) {
	setup(t)

	newer := &types.SwapRecord{Status: "pending", Amount: "2", TsCreated: 200}
	older := &types.SwapRecord{Status: "pending", Amount: "1", TsCreated: 100}
	require.NoError(t, UpsertSwapRecord(newer))
	require.NoError(t, UpsertSwapRecord(older))

	rec, err := FindSwapRecordStatus("pending")
	require.NoError(t, err)
	require.Equal(t, older.ID, rec.ID)

	rec, err = FindSwapRecordStatus("failed")
	require.NoError(t, err)
	require.Nil(t, rec)

	_, err = FindAllSwapRecordsByStatus("lost")
	require.Error(t, err)
}

func TestApprovalLockExcludes(t *testing.T) {
	setup(t)
	l := NewApprovalLock(time.Minute)
	l.PollInterval = time.Millisecond

	var inside, maxInside int32
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "approval:k")
			if err != nil {
				errs <- err
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}

func TestApprovalLockHonoursContextAndTTL(t *testing.T) {
	mr := setup(t)
	l := NewApprovalLock(time.Second)
	l.PollInterval = time.Millisecond

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the holder died, the lock expires
	mr.FastForward(2 * time.Second)
	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// a stale release must not drop the new holder's lock
	unlock()
	require.True(t, mr.Exists("lock:k"))
	unlock2()
	require.False(t, mr.Exists("lock:k"))
}

func TestApprovalMemo(t *testing.T) {
	mr := setup(t)
	m := NewApprovalMemo(time.Minute)
	ctx := context.Background()

	_, ok, err := m.Recent(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Record(ctx, "k", "0xabc"))
	hash, ok, err := m.Recent(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0xabc", hash)

	mr.FastForward(time.Minute)
	_, ok, err = m.Recent(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
