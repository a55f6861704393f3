package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "go-quickbooks"

// Client is the subset of redis.Cmdable the stores use.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewClient parses a redis:// URL into a go-redis client.
func NewClient(dsn string) (*redis.Client, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("redisstore: dsn is required")
	}
	options, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse dsn: %w", err)
	}
	return redis.NewClient(options), nil
}

func namespacedKey(prefix string, parts ...string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return strings.Join(append([]string{prefix}, parts...), ":")
}
