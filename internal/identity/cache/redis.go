package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	platformredis "veriledger/internal/platform/redis"
	"veriledger/pkg/domain"
)

const (
	redisKeyPrefix = "veriledger:verified:"
	// generationKey versions the whole cache; InvalidateAll bumps it instead
	// of scanning keys.
	generationKey = "veriledger:verified:gen"
)

// Redis is a shared cache for multi-instance deployments. Failures degrade to
// cache misses; verification correctness never depends on redis health.
type Redis struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) Get(ctx context.Context, wallet domain.WalletID) (bool, bool) {
	val, err := c.client.Get(ctx, c.key(ctx, wallet)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

func (c *Redis) Set(ctx context.Context, wallet domain.WalletID, verified bool) {
	val := "0"
	if verified {
		val = "1"
	}
	if err := c.client.Set(ctx, c.key(ctx, wallet), val, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache set failed", "error", err.Error())
	}
}

func (c *Redis) Invalidate(ctx context.Context, wallet domain.WalletID) {
	if err := c.client.Del(ctx, c.key(ctx, wallet)).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache invalidate failed", "error", err.Error())
	}
}

func (c *Redis) InvalidateAll(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache generation bump failed", "error", err.Error())
	}
}

// key namespaces entries by the current generation so InvalidateAll is O(1);
// stale generations age out via TTL.
func (c *Redis) key(ctx context.Context, wallet domain.WalletID) string {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		gen = 0
	}
	return redisKeyPrefix + strconv.FormatInt(gen, 10) + ":" + wallet.String()
}
