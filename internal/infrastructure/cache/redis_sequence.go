package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/config"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix = "ledger:seq:"
	seedLockTTL      = 10 * time.Second
)

// incrExisting advances a counter only while it exists. A missing counter,
// never seeded or evicted, returns nil so the caller reseeds it from the
// database instead of restarting at 1.
var incrExisting = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("INCR", KEYS[1])
end
return false
`)

// SeedFunc returns the highest number already handed out for prefix
type SeedFunc func(ctx context.Context, prefix shared.CodePrefix) (int64, error)

// RedisSequence hands out codes from redis INCR counters. A counter that
// does not exist, because it is new or was evicted, is seeded from the
// database under a redis lock so that concurrent instances agree on the
// starting value.
//
// Numbers are not returned when a transaction rolls back, so codes from this
// backend are unique and increasing but may have gaps.
type RedisSequence struct {
	client    *redis.Client
	locker    *redislock.Client
	seed      SeedFunc
	width     int
	keyPrefix string
}

// NewRedisClient creates a client from config and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSequence creates a RedisSequence rendering width-digit counters
func NewRedisSequence(client *redis.Client, seed SeedFunc, width int) *RedisSequence {
	if width <= 0 {
		width = shared.DefaultCodeWidth
	}
	return &RedisSequence{
		client:    client,
		locker:    redislock.New(client),
		seed:      seed,
		width:     width,
		keyPrefix: defaultKeyPrefix,
	}
}

// WithKeyPrefix namespaces the counter keys, e.g. per test
func (s *RedisSequence) WithKeyPrefix(prefix string) *RedisSequence {
	s.keyPrefix = prefix
	return s
}

// Next returns the next code for prefix
func (s *RedisSequence) Next(ctx context.Context, prefix shared.CodePrefix) (string, error) {
	key := s.key(prefix)
	for attempt := 0; attempt < 2; attempt++ {
		value, err := incrExisting.Run(ctx, s.client, []string{key}).Int64()
		if err == nil {
			return shared.FormatCode(prefix, value, s.width), nil
		}
		if !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("failed to advance code sequence %s: %w", prefix, err)
		}
		if err := s.seedCounter(ctx, prefix, key); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("code sequence %s vanished after seeding", prefix)
}

func (s *RedisSequence) key(prefix shared.CodePrefix) string {
	return s.keyPrefix + string(prefix)
}

func (s *RedisSequence) seedCounter(ctx context.Context, prefix shared.CodePrefix, key string) error {
	lock, err := s.locker.Obtain(ctx, key+":seed", seedLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 100),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("timed out waiting to seed code sequence %s", prefix)
	}
	if err != nil {
		return fmt.Errorf("failed to lock code sequence %s: %w", prefix, err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	// another instance may have seeded while we waited
	current, err := s.seed(ctx, prefix)
	if err != nil {
		return err
	}
	set, err := s.client.SetNX(ctx, key, current, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to seed code sequence %s: %w", prefix, err)
	}
	if set {
		logger.L(ctx).Info("code sequence seeded",
			zap.String("prefix", string(prefix)),
			zap.Int64("value", current),
		)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisSequence) Close() error {
	return s.client.Close()
}

var _ shared.CodeGenerator = (*RedisSequence)(nil)
