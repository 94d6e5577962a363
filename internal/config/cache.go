package config

import (
    "strings"
    "time"
)

// MaxCacheTTL bounds how stale a cached seat map may get.  Purges on write
// keep it fresh in the common case; the TTL only covers a missed purge.
const MaxCacheTTL = 30 * time.Second

// CacheConfig configures the Redis cache in front of the public show
// endpoints.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // only GET and HEAD are honoured
    TTL          time.Duration
    KeyStrategy  string // route, route_query, method_route, method_route_query
    Prefix       string
    MaxBodyBytes int
}

var cacheKeyStrategies = map[string]bool{
    "route": true, "route_query": true, "method_route": true, "method_route_query": true,
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 5*time.Second),
        KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "route_query")),
        Prefix:       envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 || cfg.TTL > MaxCacheTTL {
        cfg.TTL = MaxCacheTTL
    }
    if !cacheKeyStrategies[cfg.KeyStrategy] {
        cfg.KeyStrategy = "route_query"
    }
    if cfg.MaxBodyBytes <= 0 {
        cfg.MaxBodyBytes = 1 << 20
    }
    return cfg
}

// parseMethods keeps the safe methods of a comma separated list.  Responses
// to anything else change state and must never be replayed from cache.
func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p == "GET" || p == "HEAD" {
            m[p] = true
        }
    }
    return m
}
