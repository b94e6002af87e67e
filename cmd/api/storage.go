package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/core/ports"
	"github.com/skillhub/client-registry/internal/infrastructure/db/memory"
	mongodb "github.com/skillhub/client-registry/internal/infrastructure/db/mongo"
	redisdb "github.com/skillhub/client-registry/internal/infrastructure/db/redis"
	"github.com/skillhub/client-registry/internal/infrastructure/resilience"
	"github.com/skillhub/client-registry/internal/pkg/config"
)

// storage bundles the key-value backend selected by KV_BACKEND together with
// what depends on it.
type storage struct {
	KV          ports.KeyValueStore
	Idempotency ports.IdempotencyStore // nil unless the backend is redis
	Health      map[string]ports.Pinger
	closers     []func(context.Context) error
}

func (s *storage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, closeFn := range s.closers {
		_ = closeFn(ctx)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.KV.Backend {
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		kv := resilience.NewBreakerStore("redis", redisdb.NewStore(rdb, cfg.KV.Namespace), resilience.BreakerSettings{}, log)
		log.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("using redis key-value backend")
		return &storage{
			KV:          kv,
			Idempotency: redisdb.NewIdempotencyStore(rdb, cfg.KV.Namespace),
			Health:      map[string]ports.Pinger{"redis": kv},
			closers:     []func(context.Context) error{func(context.Context) error { return rdb.Close() }},
		}, nil

	case config.BackendMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		kv := resilience.NewBreakerStore("mongodb", mongodb.NewStore(db, cfg.Mongo.Collection, cfg.KV.Namespace), resilience.BreakerSettings{}, log)
		log.Info().Str("database", cfg.Mongo.Database).Str("collection", cfg.Mongo.Collection).Msg("using mongodb key-value backend")
		return &storage{
			KV:      kv,
			Health:  map[string]ports.Pinger{"mongodb": kv},
			closers: []func(context.Context) error{client.Disconnect},
		}, nil

	case config.BackendMemory:
		log.Warn().Msg("using in-memory key-value backend; data is lost on restart")
		kv := memory.NewStore()
		return &storage{
			KV:     kv,
			Health: map[string]ports.Pinger{"memory": kv},
		}, nil

	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.KV.Backend)
	}
}
