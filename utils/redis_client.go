package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/blogapi/config"
)

// NewRedis builds a Redis client from config and reports whether it answered a ping.
// An unreachable server is not fatal: callers fall back to in-process state.
func NewRedis(cfg config.AppConfig) (*redis.Client, bool) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis unavailable at %s, token revocation stays in memory: %v", client.Options().Addr, err)
		_ = client.Close()
		return nil, false
	}
	return client, true
}
