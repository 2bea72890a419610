package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "listwise:lock:"

// RedisConfig configures the Redis-backed lock service.
type RedisConfig struct {
	Addr      string
	Password  string
	KeyPrefix string
	DB        int
	// TTL bounds how long a lock lives without renewal. Zero means no expiry.
	TTL   time.Duration
	Retry common.RetryOptions
}

// RedisService stores one key per SKU holding "platform/account".
type RedisService struct {
	client redis.Cmdable
	cfg    RedisConfig
}

// NewRedisService connects to Redis and verifies the connection.
func NewRedisService(ctx context.Context, cfg RedisConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, common.NewDependencyError("redis", fmt.Errorf("connection failed: %w", err))
	}

	return NewRedisServiceWithClient(client, cfg), nil
}

// NewRedisServiceWithClient wraps an existing client.
func NewRedisServiceWithClient(client redis.Cmdable, cfg RedisConfig) *RedisService {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &RedisService{client: client, cfg: cfg}
}

func (s *RedisService) key(sku string) string {
	return s.cfg.KeyPrefix + sku
}

// IsLocked reports whether any holder owns sku.
func (s *RedisService) IsLocked(ctx context.Context, sku string) (bool, error) {
	var n int64
	err := s.do(ctx, func() error {
		var err error
		n, err = s.client.Exists(ctx, s.key(sku)).Result()
		return err
	})
	if err != nil {
		return false, common.NewDependencyError("redis", fmt.Errorf("exists %s: %w", sku, err))
	}
	return n > 0, nil
}

// GetActiveLock returns the current holder, or nil when sku is free.
func (s *RedisService) GetActiveLock(ctx context.Context, sku string) (*model.LockHolder, error) {
	var val string
	err := s.do(ctx, func() error {
		var err error
		val, err = s.client.Get(ctx, s.key(sku)).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewDependencyError("redis", fmt.Errorf("get %s: %w", sku, err))
	}

	holder, err := decodeHolder(val)
	if err != nil {
		return nil, common.NewDependencyError("redis", err)
	}
	return &holder, nil
}

// AcquireLock claims sku for platform/account. Re-acquiring an owned lock succeeds.
func (s *RedisService) AcquireLock(ctx context.Context, sku, platform, accountID string) error {
	value := encodeHolder(platform, accountID)

	var ok bool
	err := s.do(ctx, func() error {
		var err error
		ok, err = s.client.SetNX(ctx, s.key(sku), value, s.cfg.TTL).Result()
		return err
	})
	if err != nil {
		return common.NewDependencyError("redis", fmt.Errorf("setnx %s: %w", sku, err))
	}
	if ok {
		slog.Debug("Acquired lock", "sku", sku, "holder", value)
		return nil
	}

	holder, err := s.GetActiveLock(ctx, sku)
	if err != nil {
		return err
	}
	if holder == nil {
		// Expired between SETNX and GET.
		return s.AcquireLock(ctx, sku, platform, accountID)
	}
	if holder.Platform == platform && holder.AccountID == accountID {
		return nil
	}
	return &HeldError{SKU: sku, Holder: *holder}
}

// do runs op with retry. redis.Nil is a result, not a failure.
func (s *RedisService) do(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		err := op()
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		return &common.RetryableError{Err: err, Retryable: true}
	}, s.cfg.Retry)
}
