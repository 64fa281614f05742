package config

import (
    "os"
    "time"
)

// CacheConfig defines settings for the seat-list response cache. The
// cache only ever applies to GET requests and is off by default: the
// seat table is the single source of truth and a cached list is allowed
// only where the operator explicitly accepts up to TTL of staleness for
// polling clients. When Enabled is false or no Redis client is
// configured, caching is disabled entirely.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// The default TTL of one second stays well under the cadence at which
// seat clients poll the list endpoint.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: getenv("CACHE_ENABLED", "false") == "true",
        TTL:     parseDurDefault(getenv("CACHE_TTL", "1s"), time.Second),
        Prefix:  getenv("CACHE_PREFIX", "cache"),
    }
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseDurDefault(s string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(s); err == nil && d > 0 {
        return d
    }
    return def
}
