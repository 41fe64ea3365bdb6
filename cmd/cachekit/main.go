package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dashwise/cachekit/cache"
	"github.com/dashwise/cachekit/env"
	"github.com/dashwise/cachekit/kv"
	"github.com/dashwise/cachekit/logger"
)

var (
	dbPath    string
	redisURL  string
	keyPrefix string
	entries   int
)

// openBackend returns the durable backend selected by flags, or nil when
// neither --db nor --redis is given.
func openBackend() (kv.Store, error) {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		return kv.NewRedis(redis.NewClient(opts)), nil
	}
	if dbPath != "" {
		return kv.NewSQLite(dbPath)
	}
	return nil, nil
}

var rootCmd = &cobra.Command{
	Use:   "cachekit",
	Short: "Exercise and inspect a cachekit cache",
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a write/read workload and print cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewConsoleLogger()
		opts, err := env.CacheOptions()
		if err != nil {
			return err
		}
		backend, err := openBackend()
		if err != nil {
			return err
		}
		if backend != nil {
			defer backend.Close()
			opts = append(opts, cache.WithPersistence(backend, nil), cache.WithKeyPrefix(keyPrefix))
		}

		s, err := cache.New(cmd.Context(), log, opts...)
		if err != nil {
			return err
		}
		defer s.Destroy()

		start := time.Now()
		for i := 0; i < entries; i++ {
			s.Set(fmt.Sprintf("bench_%d", i), map[string]int{"seq": i})
		}
		for i := 0; i < entries; i++ {
			s.Get(fmt.Sprintf("bench_%d", i))
		}
		// Half as many deliberate misses.
		for i := 0; i < entries/2; i++ {
			s.Get(fmt.Sprintf("absent_%d", i))
		}
		elapsed := time.Since(start)

		stats := s.Stats()
		fmt.Printf("entries:          %d\n", stats.Entries)
		fmt.Printf("memory usage:     %d bytes\n", stats.MemoryUsage)
		fmt.Printf("total requests:   %d\n", stats.TotalRequests)
		fmt.Printf("hit rate:         %.2f%%\n", stats.HitRate*100)
		fmt.Printf("miss rate:        %.2f%%\n", stats.MissRate*100)
		fmt.Printf("avg access time:  %s\n", stats.AverageAccessTime)
		fmt.Printf("wall time:        %s\n", elapsed)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all persisted cache keys under the namespace prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		if backend == nil {
			return fmt.Errorf("purge requires --db or --redis")
		}
		defer backend.Close()

		ctx := cmd.Context()
		keys, err := backend.ListKeys(ctx, keyPrefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := backend.Remove(ctx, key); err != nil {
				return err
			}
		}
		fmt.Printf("removed %d keys under %q\n", len(keys), keyPrefix)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List persisted cache keys under the namespace prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		if backend == nil {
			return fmt.Errorf("keys requires --db or --redis")
		}
		defer backend.Close()

		keys, err := backend.ListKeys(cmd.Context(), keyPrefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path for the durable backend")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis URL for the durable backend")
	rootCmd.PersistentFlags().StringVar(&keyPrefix, "prefix", cache.DefaultKeyPrefix, "durable backend key namespace")
	benchCmd.Flags().IntVar(&entries, "entries", 10000, "number of entries to write")
	rootCmd.AddCommand(benchCmd, purgeCmd, keysCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
