package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dashwise/cachekit/kv"
)

// ErrInvalidConfig is wrapped by construction errors for bad Config values.
var ErrInvalidConfig = errors.New("cache: invalid config")

// Defaults applied by New when the corresponding option is not given.
const (
	DefaultMaxMemory       = 64 << 20 // 64 MiB
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
	DefaultMaxEntries      = 1000
	// DefaultKeyPrefix namespaces persisted keys in the durable backend.
	DefaultKeyPrefix = "cachekit:"
)

// Config bounds the store. All fields must be positive.
type Config struct {
	// MaxMemory is the ceiling on aggregate estimated entry size, in bytes.
	MaxMemory int64
	// DefaultTTL is applied to entries stored without an explicit TTL.
	DefaultTTL time.Duration
	// CleanupInterval is the period of the background maintenance task.
	CleanupInterval time.Duration
	// MaxEntries is the ceiling on the number of live entries.
	MaxEntries int
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if c.MaxMemory <= 0 {
		return fmt.Errorf("%w: max memory must be positive, got %d", ErrInvalidConfig, c.MaxMemory)
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("%w: default TTL must be positive, got %s", ErrInvalidConfig, c.DefaultTTL)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup interval must be positive, got %s", ErrInvalidConfig, c.CleanupInterval)
	}
	if c.MaxEntries <= 0 {
		return fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidConfig, c.MaxEntries)
	}
	return nil
}

// KeyPredicate decides whether a key should be mirrored to the durable
// backend, e.g. by matching a durable-relevant key namespace.
type KeyPredicate func(key string) bool

// options holds the resolved configuration for a Store.
type options struct {
	config    Config
	clock     Clock
	estimate  SizeEstimator
	backend   kv.Store
	predicate KeyPredicate
	keyPrefix string
}

// Option configures a Store.
type Option func(*options)

func defaultOptions() options {
	return options{
		config: Config{
			MaxMemory:       DefaultMaxMemory,
			DefaultTTL:      DefaultTTL,
			CleanupInterval: DefaultCleanupInterval,
			MaxEntries:      DefaultMaxEntries,
		},
		clock:     realClock{},
		estimate:  estimateSize,
		keyPrefix: DefaultKeyPrefix,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig replaces the entire Config.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithMaxMemory sets the memory budget in bytes.
func WithMaxMemory(bytes int64) Option {
	return func(o *options) { o.config.MaxMemory = bytes }
}

// WithDefaultTTL sets the TTL applied when Set is called without one.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) { o.config.DefaultTTL = d }
}

// WithCleanupInterval sets the janitor period.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.config.CleanupInterval = d }
}

// WithMaxEntries sets the entry count budget.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.config.MaxEntries = n }
}

// WithClock substitutes the time source. Intended for tests.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithSizeEstimator substitutes the entry size estimator.
func WithSizeEstimator(estimate SizeEstimator) Option {
	return func(o *options) { o.estimate = estimate }
}

// WithPersistence enables write-through persistence for keys matching the
// predicate. A nil predicate persists every key.
func WithPersistence(backend kv.Store, predicate KeyPredicate) Option {
	return func(o *options) {
		o.backend = backend
		o.predicate = predicate
	}
}

// WithKeyPrefix sets the namespace prefix for persisted keys.
// Defaults to DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}
