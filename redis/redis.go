package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"goomnicbridge/config"
	"goomnicbridge/types"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

// Connect points the package pool at addr ("host:port").
func Connect(addr string) {
	pool = &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 240 * time.Second,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", addr, timeoutDialOptions()...) },
	}
}

func Init() {
	Connect(fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort))
}

// Ping is used by the health check.
func Ping() error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

func recordKey(status, id string) string {
	return fmt.Sprintf("swapop:%s:%s", status, id)
}

// note that multiple sets should not contain one record
func UpsertSwapRecord(rec *types.SwapRecord) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}

	if rec.Status == "" {
		return errors.New("swap record cannot have empty status")
	}
	statusSet, ok := config.RedisStatusSets[rec.Status]
	if !ok {
		return fmt.Errorf("unknown swap status %q", rec.Status)
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if rec.TsCreated == 0 {
		rec.TsCreated = now
	}
	rec.TsUpdated = now
	key := recordKey(rec.Status, rec.ID)

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal swap record to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", key, recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	// also add the key to the corresponding SET
	_, err = conn.Do("SADD", statusSet, key)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	// status does not change with the id, keep an index for lookups by id
	_, err = conn.Do("SET", "swapop:id:"+rec.ID, rec.Status)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	return nil
}

// ChangeSwapRecordStatus moves rec from prevStatus to rec.Status in one MULTI block.
func ChangeSwapRecordStatus(rec *types.SwapRecord, prevStatus string) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}

	if rec.Status == "" {
		return errors.New("swap record cannot have empty status")
	}
	if rec.ID == "" {
		return errors.New("swap record has no id")
	}
	statusSet, ok := config.RedisStatusSets[rec.Status]
	if !ok {
		return fmt.Errorf("unknown swap status %q", rec.Status)
	}
	prevStatusSet, ok := config.RedisStatusSets[prevStatus]
	if !ok {
		return fmt.Errorf("unknown swap status %q", prevStatus)
	}

	prevKey := recordKey(prevStatus, rec.ID)
	key := recordKey(rec.Status, rec.ID)
	rec.TsUpdated = time.Now().Unix()

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal swap record to JSON: %s", err.Error())
	}

	conn.Send("MULTI")
	conn.Send("SREM", prevStatusSet, prevKey)
	conn.Send("DEL", prevKey)
	conn.Send("SET", key, recJSON)
	conn.Send("SADD", statusSet, key)
	conn.Send("SET", "swapop:id:"+rec.ID, rec.Status)
	_, err = conn.Do("EXEC")
	if err != nil {
		log.Printf("error Redis EXEC: %s", err.Error())
		return err
	}

	return nil
}

func getRecord(conn redis.Conn, key string) (*types.SwapRecord, error) {
	raw, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		// record was moved to another status between SSCAN and GET
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	var rec types.SwapRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindSwapRecordByID returns nil when the id is unknown.
func FindSwapRecordByID(id string) (*types.SwapRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	status, err := redis.String(conn.Do("GET", "swapop:id:"+id))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	return getRecord(conn, recordKey(status, id))
}

// FindSwapRecordStatus returns the oldest record with the status, or nil if there is none.
func FindSwapRecordStatus(status string) (*types.SwapRecord, error) {
	recs, err := FindAllSwapRecordsByStatus(status)
	if err != nil || len(recs) == 0 {
		return nil, err
	}

	oldest := recs[0]
	for _, rec := range recs[1:] {
		if rec.TsCreated < oldest.TsCreated {
			oldest = rec
		}
	}
	return oldest, nil
}

// Attention, this operation scans the whole status set
func FindAllSwapRecordsByStatus(status string) ([]*types.SwapRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	statusSet, ok := config.RedisStatusSets[status]
	if !ok {
		return nil, errors.New("redis key not found for status")
	}

	recs := make([]*types.SwapRecord, 0)

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", statusSet, cursor))
		if err != nil {
			return nil, err
		}

		var keys []string
		_, err = redis.Scan(values, &cursor, &keys)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			rec, err := getRecord(conn, key)
			if err != nil {
				return nil, err
			}
			if rec != nil && rec.Status == status {
				recs = append(recs, rec)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return recs, nil
}
