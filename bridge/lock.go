package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Locker gives mutual exclusion per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ApprovalMemo remembers approvals that were submitted but may still be in the mempool.
type ApprovalMemo interface {
	Recent(ctx context.Context, key string) (string, bool, error)
	Record(ctx context.Context, key string, txHash string) error
}

// approvalKey identifies one allowance: (chain, token, owner, spender).
func approvalKey(chain string, token, owner, spender common.Address) string {
	return strings.ToLower(fmt.Sprintf("approval:%s:%s:%s:%s", chain, token.Hex(), owner.Hex(), spender.Hex()))
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker is an in-process Locker. Waiting for a key honours ctx.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: map[string]*keyedEntry{}}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

type memoEntry struct {
	txHash  string
	expires time.Time
}

// MemoryMemo is an in-process ApprovalMemo with a fixed time to live.
type MemoryMemo struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memoEntry
	now     func() time.Time
}

func NewMemoryMemo(ttl time.Duration) *MemoryMemo {
	return &MemoryMemo{ttl: ttl, entries: map[string]memoEntry{}, now: time.Now}
}

func (m *MemoryMemo) Recent(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.txHash, true, nil
}

func (m *MemoryMemo) Record(_ context.Context, key string, txHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoEntry{txHash: txHash, expires: m.now().Add(m.ttl)}
	return nil
}
