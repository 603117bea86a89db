package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/go-redis/redis/v8"
)

// SessionStore keeps the ids of tokens revoked before their expiry.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisSessionStore struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisSessionStore(cfg *config.RedisConfig) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("session:revoked:%s", tokenID)
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Revoke stores the token id until ttl elapses; an expired token needs no entry.
func (r *RedisSessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKey(tokenID), time.Now().Unix(), ttl).Err()
}

func (r *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

// NopSessionStore never revokes anything; logout becomes client-side only.
type NopSessionStore struct{}

func (NopSessionStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (NopSessionStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }
