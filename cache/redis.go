package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"checkout-svc/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func InitRedis(logger *zap.Logger) (*redis.Client, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port := getEnv("REDIS_PORT", "6379")
	password := getEnv("REDIS_PASSWORD", "")

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return rdb, nil
}

// FinalizedEntry records who finalized a payment reference and what came
// out of it. The buyer id lets the fast path refuse to answer for anyone
// but the original buyer.
type FinalizedEntry struct {
	BuyerID int                   `json:"buyer_id"`
	Orders  []models.OrderSummary `json:"orders"`
}

// RedisCache stores finalized payment references so replays can be
// answered without touching the gateway or the database. The payments
// table constraint remains the authority; a miss here just falls through.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetFinalized(ctx context.Context, paymentRef string) (FinalizedEntry, bool) {
	data, err := c.rdb.Get(ctx, finalizedKey(paymentRef)).Bytes()
	if err != nil {
		return FinalizedEntry{}, false
	}
	var entry FinalizedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return FinalizedEntry{}, false
	}
	return entry, true
}

func (c *RedisCache) SetFinalized(ctx context.Context, paymentRef string, entry FinalizedEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, finalizedKey(paymentRef), data, ttl).Err()
}

func finalizedKey(paymentRef string) string {
	return fmt.Sprintf("finalized:%s", paymentRef)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
