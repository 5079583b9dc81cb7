package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares profiles across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ProfileCache = (*RedisCache)(nil)

func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, id uuid.UUID) (models.Profile, bool) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("profile cache get failed", "user_id", id.String(), "error", err)
		}
		return models.Profile{}, false
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("profile cache decode failed", "user_id", id.String(), "error", err)
		return models.Profile{}, false
	}
	return p, true
}

func (r *RedisCache) Set(ctx context.Context, p models.Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("profile cache encode failed", "user_id", p.ID.String(), "error", err)
		return
	}
	if err := r.client.Set(ctx, key(p.ID), data, r.ttl).Err(); err != nil {
		slog.Warn("profile cache set failed", "user_id", p.ID.String(), "error", err)
	}
}

func (r *RedisCache) Delete(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		slog.Warn("profile cache delete failed", "user_id", id.String(), "error", err)
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
