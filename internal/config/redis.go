package config

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing rate limiting
// and the seat-map response cache. Address resolution order:
// REDIS_HOST + REDIS_PORT, then REDIS_ADDR, then localhost:6379.
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS are honored when set.
//
// Redis is an optional dependency here: when the ping fails the
// function returns nil and callers run without caching or limiting.
func NewRedisClient() *redis.Client {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host := envStr("REDIS_HOST", ""); host != "" {
		if port := envStr("REDIS_PORT", ""); port != "" {
			addr = host + ":" + port
		}
	}

	dbNum := 0
	if v := envStr("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			dbNum = n
		}
	}

	var tlsConf *tls.Config
	if v := envStr("REDIS_TLS", ""); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  envStr("REDIS_PASSWORD", ""),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
