package store

import (
	"context"
	"fmt"

	"github.com/tournevent/paccofacile/internal/config"
)

// Open returns the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
