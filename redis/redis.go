package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/types"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	InitAddr(fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort))
}

func InitAddr(redisAddr string) {
	pool = &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 4 * time.Minute,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

func Ping() error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

func scannedBlockKey(chain types.ChainID, kind types.EventKind) string {
	return fmt.Sprintf("relayBlockScanned:%s:%s", chain, kind)
}

func operationKey(status, id string) string {
	return fmt.Sprintf("relayop:%s:%s", status, id)
}

func sourceKey(txHash string, logIndex uint) string {
	return fmt.Sprintf("relaysrc:%s:%d", txHash, logIndex)
}

// GetScannedBlock returns the last fully relayed block of chain, -1 if none was stored yet.
func GetScannedBlock(chain types.ChainID, kind types.EventKind) (int64, error) {
	conn := pool.Get()
	defer conn.Close()

	blockHeight, err := redis.Int64(conn.Do("GET", scannedBlockKey(chain, kind)))
	if err == nil {
		return blockHeight, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	log.Printf("error Redis get: %s", err.Error())
	return -1, err
}

func SetScannedBlock(chain types.ChainID, kind types.EventKind, blockHeight uint64) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", scannedBlockKey(chain, kind), blockHeight)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}

	return nil
}

// UpsertRelayOperation stores op under its status. Sent operations are also
// indexed by source event so later cycles can find them.
func UpsertRelayOperation(op *types.RelayOperation) error {
	conn := pool.Get()
	defer conn.Close()

	if op == nil {
		return errors.New("null object to store")
	}

	setKey, ok := config.RedisStatusSets[op.Status]
	if !ok {
		return errors.Errorf("relay operation has unknown status %q", op.Status)
	}

	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	recordKey := operationKey(op.Status, op.ID)

	opJSON, err := json.Marshal(op)
	if err != nil {
		return errors.Wrap(err, "cannot marshal relay operation to JSON")
	}

	_, err = conn.Do("SET", recordKey, opJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	// also add the key to the corresponding SET
	_, err = conn.Do("SADD", setKey, recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	if op.Status == types.StatusSent {
		_, err = conn.Do("SET", sourceKey(op.SourceTxHash, op.SourceLogIndex), recordKey)
		if err != nil {
			log.Printf("error Redis SET: %s", err.Error())
			return err
		}
	}

	return nil
}

// FindRelayOperationBySource returns the sent operation relaying the given
// source log, nil when there is none.
func FindRelayOperationBySource(txHash string, logIndex uint) (*types.RelayOperation, error) {
	conn := pool.Get()
	defer conn.Close()

	if txHash == "" {
		return nil, errors.New("empty source transaction hash")
	}

	recordKey, err := redis.String(conn.Do("GET", sourceKey(txHash, logIndex)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	raw, err := redis.Bytes(conn.Do("GET", recordKey))
	if errors.Is(err, redis.ErrNil) {
		// index outlived its record
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	var op types.RelayOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func FindAllRelayOperationsByStatus(status string) ([]*types.RelayOperation, error) {
	conn := pool.Get()
	defer conn.Close()

	setKey, ok := config.RedisStatusSets[status]
	if !ok {
		return nil, errors.New("redis key not found for status")
	}

	ops := make([]*types.RelayOperation, 0)

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", setKey, cursor))
		if err != nil {
			return nil, err
		}

		var opKeys []string
		_, err = redis.Scan(values, &cursor, &opKeys)
		if err != nil {
			return nil, err
		}

		for _, key := range opKeys {
			raw, err := redis.Bytes(conn.Do("GET", key))
			if errors.Is(err, redis.ErrNil) {
				continue
			}
			if err != nil {
				log.Printf("error Redis GET: %s", err.Error())
				return nil, err
			}

			var op types.RelayOperation
			if err := json.Unmarshal(raw, &op); err != nil {
				return nil, err
			}
			if op.Status == status {
				ops = append(ops, &op)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return ops, nil
}

// Store keeps relay checkpoints and outcomes in redis.
type Store struct{}

func (Store) LastBlock(_ context.Context, chain types.ChainID, kind types.EventKind) (uint64, bool, error) {
	block, err := GetScannedBlock(chain, kind)
	if err != nil || block < 0 {
		return 0, false, err
	}
	return uint64(block), true, nil
}

func (Store) SetLastBlock(_ context.Context, chain types.ChainID, kind types.EventKind, block uint64) error {
	return SetScannedBlock(chain, kind, block)
}

func (Store) Record(_ context.Context, op *types.RelayOperation) error {
	return UpsertRelayOperation(op)
}

func (Store) Relayed(_ context.Context, ev types.BridgeEvent) (bool, error) {
	op, err := FindRelayOperationBySource(ev.TxHash.Hex(), ev.LogIndex)
	if err != nil {
		return false, err
	}
	return op != nil, nil
}
