// Package env loads cache configuration from environment variables.
//
// Recognized variables (all optional; package defaults apply otherwise):
//
//	CACHEKIT_MAX_MEMORY       memory budget in bytes (e.g. 67108864)
//	CACHEKIT_DEFAULT_TTL      default entry TTL (e.g. "5m", "1h30m", "90s")
//	CACHEKIT_CLEANUP_INTERVAL janitor period (same duration syntax)
//	CACHEKIT_MAX_ENTRIES      entry count budget
//	CACHEKIT_KEY_PREFIX       durable backend key namespace
//
// Durations accept the extended syntax of
// [github.com/xhit/go-str2duration/v2], which adds day and week units.
package env

import (
	"fmt"
	"os"
	"strconv"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/dashwise/cachekit/cache"
)

const (
	maxMemoryVar       = "CACHEKIT_MAX_MEMORY"
	defaultTTLVar      = "CACHEKIT_DEFAULT_TTL"
	cleanupIntervalVar = "CACHEKIT_CLEANUP_INTERVAL"
	maxEntriesVar      = "CACHEKIT_MAX_ENTRIES"
	keyPrefixVar       = "CACHEKIT_KEY_PREFIX"
)

// CacheOptions builds cache options from the environment. Unset variables
// contribute nothing, so the cache package defaults stay in effect. A value
// that fails to parse is a configuration error.
func CacheOptions() ([]cache.Option, error) {
	var opts []cache.Option

	if val := os.Getenv(maxMemoryVar); val != "" {
		bytes, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("env: %s: %w", maxMemoryVar, err)
		}
		opts = append(opts, cache.WithMaxMemory(bytes))
	}
	if val := os.Getenv(defaultTTLVar); val != "" {
		d, err := str2duration.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("env: %s: %w", defaultTTLVar, err)
		}
		opts = append(opts, cache.WithDefaultTTL(d))
	}
	if val := os.Getenv(cleanupIntervalVar); val != "" {
		d, err := str2duration.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("env: %s: %w", cleanupIntervalVar, err)
		}
		opts = append(opts, cache.WithCleanupInterval(d))
	}
	if val := os.Getenv(maxEntriesVar); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("env: %s: %w", maxEntriesVar, err)
		}
		opts = append(opts, cache.WithMaxEntries(n))
	}
	if val := os.Getenv(keyPrefixVar); val != "" {
		opts = append(opts, cache.WithKeyPrefix(val))
	}

	return opts, nil
}
