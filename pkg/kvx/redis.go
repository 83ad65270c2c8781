package kvx

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aussiebroadwan/filekeep/pkg/idx"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Short timeouts keep a dead Redis from stalling requests before the
	// caller falls back.
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

type Redis struct {
	rdb *redis.Client
}

func NewRedis(cfg RedisConfig) *Redis {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 500 * time.Millisecond
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = 500 * time.Millisecond
	}

	return &Redis{rdb: redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
		MaxRetries:   1,
	})}
}

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// RecordInWindow keeps one sorted set per key scored by unix millis. Trim,
// add, count and expire run in a single MULTI/EXEC so concurrent callers on
// different replicas all see a consistent count.
func (r *Redis) RecordInWindow(ctx context.Context, key string, at time.Time, window time.Duration) (int, error) {
	now := at.UnixMilli()
	cutoff := at.Add(-window).UnixMilli()
	member := strconv.FormatInt(now, 10) + ":" + idx.NewAt(at).String()

	var card *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		p.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member})
		card = p.ZCard(ctx, key)
		p.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}
