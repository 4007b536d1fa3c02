package redis

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

// releases the lock only if it still holds our token
var unlockScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ApprovalLock is a bridge.Locker shared by every process using the same Redis.
// A lock expires after TTL in case its holder dies.
type ApprovalLock struct {
	TTL          time.Duration
	PollInterval time.Duration
}

func NewApprovalLock(ttl time.Duration) *ApprovalLock {
	return &ApprovalLock{TTL: ttl, PollInterval: 100 * time.Millisecond}
}

func (l *ApprovalLock) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	lockKey := "lock:" + key

	for {
		ok, err := l.tryLock(lockKey, token)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.PollInterval):
		}
	}

	return func() {
		conn := pool.Get()
		defer conn.Close()

		if _, err := unlockScript.Do(conn, lockKey, token); err != nil {
			log.Printf("error releasing %s: %s", lockKey, err.Error())
		}
	}, nil
}

func (l *ApprovalLock) tryLock(lockKey, token string) (bool, error) {
	conn := pool.Get()
	defer conn.Close()

	_, err := redis.String(conn.Do("SET", lockKey, token, "NX", "PX", l.TTL.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		log.Printf("error Redis SET NX: %s", err.Error())
		return false, err
	}
	return true, nil
}

// ApprovalMemo is a bridge.ApprovalMemo kept in Redis with an expiry.
type ApprovalMemo struct {
	TTL time.Duration
}

func NewApprovalMemo(ttl time.Duration) *ApprovalMemo {
	return &ApprovalMemo{TTL: ttl}
}

func (m *ApprovalMemo) Recent(ctx context.Context, key string) (string, bool, error) {
	conn := pool.Get()
	defer conn.Close()

	txHash, err := redis.String(conn.Do("GET", "memo:"+key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return "", false, err
	}
	return txHash, true, nil
}

func (m *ApprovalMemo) Record(ctx context.Context, key string, txHash string) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", "memo:"+key, txHash, "PX", m.TTL.Milliseconds())
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
	}
	return err
}
