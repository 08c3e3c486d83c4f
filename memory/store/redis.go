package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
)

// RedisStore implements memory.Store with one JSON string per record and
// sorted-set indexes scored by record time.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Time-to-live for keys (0 means no expiration)
}

func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = RedisConfigFromEnv()
	}
	if config.Prefix == "" {
		config.Prefix = "nyaya:memory:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{client: client, prefix: config.Prefix, ttl: config.TTL}
}

func (s *RedisStore) recordKey(id string) string   { return s.prefix + "record:" + id }
func (s *RedisStore) indexKey() string             { return s.prefix + "index" }
func (s *RedisStore) userKey(userID string) string { return s.prefix + "user:" + userID }

func (s *RedisStore) Save(ctx context.Context, rec *memory.Record) error {
	if err := memory.Prepare(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	score := float64(time.Now().Unix())
	if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
		score = float64(ts.Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score, Member: rec.ID})
	pipe.ZAdd(ctx, s.userKey(rec.UserID), redis.Z{Score: score, Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store record in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*memory.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) Recent(ctx context.Context, userID string, limit int) ([]*memory.Record, error) {
	key := s.indexKey()
	if userID != "" {
		key = s.userKey(userID)
	}
	ids, err := s.client.ZRevRange(ctx, key, 0, int64(memory.Limit(limit))-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read record index: %w", err)
	}

	out := make([]*memory.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, errorskg.ErrNotFound) {
				// expired by TTL
				s.client.ZRem(ctx, key, id)
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
