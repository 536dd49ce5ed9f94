package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

const (
	redisSettingsKey          = "paccofacile:settings"
	redisFulfillmentPrefix    = "paccofacile:fulfillment:"
	redisShippingMethodPrefix = "paccofacile:shipping-method:"
)

// RedisStore persists state in Redis. Settings live in a single hash,
// records and shipping-method blobs as JSON strings.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to addr and checks the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) GetSetting(ctx context.Context, name string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, redisSettingsKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return v, true, nil
}

func (s *RedisStore) SetSetting(ctx context.Context, name, value string) error {
	return s.rdb.HSet(ctx, redisSettingsKey, name, value).Err()
}

func (s *RedisStore) ListSettings(ctx context.Context) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, redisSettingsKey).Result()
}

func (s *RedisStore) SaveFulfillment(ctx context.Context, record *fulfillment.Record) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisFulfillmentPrefix+record.ID, b, 0).Err()
}

func (s *RedisStore) GetFulfillment(ctx context.Context, id string) (*fulfillment.Record, error) {
	b, err := s.rdb.Get(ctx, redisFulfillmentPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fulfillment %s: %w", id, err)
	}
	var record fulfillment.Record
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisStore) SaveShippingMethodData(ctx context.Context, orderID, methodID string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisShippingMethodPrefix+shippingMethodKey(orderID, methodID), b, 0).Err()
}

func (s *RedisStore) GetShippingMethodData(ctx context.Context, orderID, methodID string) (map[string]any, error) {
	b, err := s.rdb.Get(ctx, redisShippingMethodPrefix+shippingMethodKey(orderID, methodID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping method %s: %w", methodID, err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
