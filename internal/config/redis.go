package config

// Redis backs the reservation rate limiter and the seat map response cache.
// Both degrade to pass-through when Redis is down, so a failed connection at
// startup is logged and reported as a nil client rather than a fatal error.

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment.  Supported
// variables:
//   REDIS_URL – redis:// or rediss:// URL, wins over everything below
//   REDIS_HOST and REDIS_PORT, or REDIS_ADDR as host:port
//   REDIS_PASSWORD, REDIS_DB
//   REDIS_TLS – "true" or "1"
func RedisOptions() (*redis.Options, error) {
    if u := os.Getenv("REDIS_URL"); u != "" {
        return redis.ParseURL(u)
    }
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    opts := &redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")}
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            opts.DB = n
        }
    }
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}

// NewRedisClient connects to Redis and pings it with a short timeout.  It
// returns nil when Redis is unreachable or misconfigured.
func NewRedisClient() *redis.Client {
    opts, err := RedisOptions()
    if err != nil {
        log.Printf("redis: bad configuration: %v", err)
        return nil
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable, cache and rate limit disabled: %v", opts.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
