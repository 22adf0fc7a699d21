package cache

import (
	"context"
	"fmt"
	"time"

	"blog-social/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis and pings it; callers treat a nil client as "no cache".
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.GetLogger().WithField("addr", addr).WithField("db", db).Info("Connected to Redis")
	return client, nil
}
