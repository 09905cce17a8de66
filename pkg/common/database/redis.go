package database

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/simple-clinic/clinic-sync/pkg/common/config"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
)

const redisPingTimeout = 5 * time.Second

var rdb connection[*redis.Client]

func RedisAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.RedisHost, cfg.RedisPort)
}

// OpenRedis connects and pings. The merge lock lives in Redis, so an
// unreachable server is an error rather than a warning.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     RedisAddr(cfg),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		logger.Log.WithError(err).WithField("addr", RedisAddr(cfg)).Error("Failed to connect to Redis")
		return nil, fmt.Errorf("connect redis %s: %w", RedisAddr(cfg), err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"addr": RedisAddr(cfg),
		"db":   cfg.RedisDB,
	}).Info("Connected to Redis")
	return client, nil
}

// GetRedis returns the shared client, opening it on first use.
func GetRedis(cfg *config.Config) (*redis.Client, error) {
	return rdb.get(func() (*redis.Client, error) {
		return OpenRedis(context.Background(), cfg)
	})
}

func CloseRedis() error {
	if rdb.val == nil {
		return nil
	}
	return rdb.val.Close()
}
