package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"security-service/internal/client"
	"security-service/internal/models"
	"security-service/internal/util"
)

const swapRatePrefix = "swap_rate:"

// ErrSwapRateMiss is returned when a symbol has no cached rate.
var ErrSwapRateMiss = errors.New("swap rate not cached")

// SwapRateCache shares fetched swap rates across instances. Rates
// update roughly once a day, so a long TTL is fine.
type SwapRateCache struct {
	client *client.RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewSwapRateCache(rdb *client.RedisClient, ttl time.Duration, logger *zap.Logger) *SwapRateCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SwapRateCache{
		client: rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached rate for a symbol or ErrSwapRateMiss.
func (c *SwapRateCache) Get(ctx context.Context, symbol string) (models.SwapRate, error) {
	raw, err := c.client.Get(ctx, swapRatePrefix+symbol)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.SwapRate{}, ErrSwapRateMiss
		}
		return models.SwapRate{}, fmt.Errorf("failed to read swap rate cache: %w", err)
	}

	var rate models.SwapRate
	if err := json.Unmarshal([]byte(raw), &rate); err != nil {
		return models.SwapRate{}, fmt.Errorf("corrupt swap rate cache entry: %w", err)
	}
	return rate, nil
}

// Set stores a rate. Best-effort; a cache write failure is logged and
// dropped.
func (c *SwapRateCache) Set(ctx context.Context, rate models.SwapRate, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(rate)
	if err != nil {
		c.logger.Warn("failed to encode swap rate", util.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, swapRatePrefix+rate.Symbol, raw, ttl); err != nil {
		c.logger.Warn("failed to cache swap rate",
			util.String("symbol", rate.Symbol),
			util.ErrorField(err))
	}
}
