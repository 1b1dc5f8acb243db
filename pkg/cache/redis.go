package cache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

const pingTimeout = 2 * time.Second

var errNoClient = errors.New("redis client not configured")

// Options maps cfg onto go-redis options. Timeouts are short because the
// cache only ever sits in front of Postgres and a slow Redis should fall
// through to the database.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   1,
	}
}

// NewRedis returns a client for the aggregate cache together with the
// result of a first ping. The client is usable either way.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))
	return client, Ping(ctx, client)
}

// Ping reports whether Redis is reachable.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if client == nil {
		return errNoClient
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
