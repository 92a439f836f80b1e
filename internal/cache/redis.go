package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry list cache keys. Lists are cached per entry type and view.
const (
	EntriesKeyFmt = "entries:%s:%s" // entries:<entry_type>:<admin|player>
)

var client *redis.Client

// Init initializes the Redis connection. On failure the client stays nil
// and every cache call degrades to a miss.
func Init(addr, password string, db int) error {
	if addr == "" {
		addr = "localhost:6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// EntriesKey builds the cache key for one entry type list.
func EntriesKey(entryType string, adminView bool) string {
	view := "player"
	if adminView {
		view = "admin"
	}
	return fmt.Sprintf(EntriesKeyFmt, entryType, view)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateEntryCaches clears cached lists for one entry type.
// Called when: CreateTransaction, UpdateTransaction, DeleteTransaction,
// ApplyDeductions, UndoDeduction, ResetEntryType.
func InvalidateEntryCaches(ctx context.Context, entryType string) {
	InvalidatePattern(ctx, fmt.Sprintf("entries:%s:*", entryType))
}

// InvalidateAllEntryCaches clears every cached entry list.
func InvalidateAllEntryCaches(ctx context.Context) {
	InvalidatePattern(ctx, "entries:*")
}

// InvalidateUserCaches clears all user-related caches
// Called when: CreateUser, UpdateUser, DeleteUser, balance changes
func InvalidateUserCaches(ctx context.Context) {
	InvalidatePattern(ctx, "users:*")
}

// InvalidateSettingCaches clears all setting-related caches
// Called when: UpdateSetting
func InvalidateSettingCaches(ctx context.Context) {
	InvalidatePattern(ctx, "settings:*")
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
