package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restomenu/menukit/pkg/usage"
)

var (
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")
	ErrNotReady                = errors.New("redis did not become ready within the given time period")
)

// Config holds Redis connection settings loadable from the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	SnapshotTTL time.Duration `env:"REDIS_USAGE_SNAPSHOT_TTL" envDefault:"30s"`
}

// Connect establishes a Redis client with retry, pinging before returning
// so a half-up Redis is caught at startup.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for range attempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		default:
			time.Sleep(cfg.RetryInterval)
		}
	}
	return nil, ErrNotReady
}

// SnapshotCache decorates a usage.SnapshotSource with a short-lived Redis
// cache. Usage counters run on every creation attempt, so the inner source
// (typically counting rows in Postgres) only sees one query per TTL window
// per restaurant. Cache failures fall through to the inner source; a cold
// or broken cache costs latency, never correctness.
type SnapshotCache struct {
	inner  usage.SnapshotSource
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewSnapshotCache creates the cache decorator. Inner source and client
// are required; a non-positive TTL falls back to 30 seconds.
func NewSnapshotCache(inner usage.SnapshotSource, client *redis.Client, ttl time.Duration, log *slog.Logger) *SnapshotCache {
	if inner == nil {
		panic("rediscache: snapshot source is required")
	}
	if client == nil {
		panic("rediscache: redis client is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SnapshotCache{inner: inner, client: client, ttl: ttl, log: log}
}

func snapshotKey(restaurantID int64) string {
	return fmt.Sprintf("menukit:usage:snapshot:%d", restaurantID)
}

// Snapshot implements usage.SnapshotSource.
func (c *SnapshotCache) Snapshot(ctx context.Context, restaurantID int64) (usage.Snapshot, error) {
	key := snapshotKey(restaurantID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var snap usage.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap, nil
		}
		// Unreadable entries get dropped and refetched.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "usage snapshot cache read failed",
			slog.Int64("restaurant_id", restaurantID),
			slog.Any("error", err),
		)
	}

	snap, err := c.inner.Snapshot(ctx, restaurantID)
	if err != nil {
		return usage.Snapshot{}, err
	}

	if data, err := json.Marshal(snap); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "usage snapshot cache write failed",
				slog.Int64("restaurant_id", restaurantID),
				slog.Any("error", err),
			)
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next check sees fresh
// counts. Call after creating or deleting counted resources.
func (c *SnapshotCache) Invalidate(ctx context.Context, restaurantID int64) error {
	return c.client.Del(ctx, snapshotKey(restaurantID)).Err()
}
