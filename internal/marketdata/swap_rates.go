package marketdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"security-service/internal/models"
	"security-service/internal/util"
)

// Provider fetches live swap rates from an upstream source. Returning
// an error makes the service fall back to the static table.
type Provider interface {
	FetchSwapRate(ctx context.Context, symbol string) (models.SwapRate, error)
}

// RateCache is the shared cache layer in front of the provider,
// typically Redis. A nil cache keeps lookups in-process only.
type RateCache interface {
	Get(ctx context.Context, symbol string) (models.SwapRate, error)
	Set(ctx context.Context, rate models.SwapRate, ttl time.Duration)
}

// Swap rates update roughly once a day, so stale fallbacks are
// acceptable when the provider is down.
var fallbackSwapRates = map[string]models.SwapRate{
	"EURUSD": {Symbol: "EURUSD", SwapLong: -2.1, SwapShort: -1.8},
	"GBPUSD": {Symbol: "GBPUSD", SwapLong: -3.2, SwapShort: -2.1},
	"USDJPY": {Symbol: "USDJPY", SwapLong: 1.8, SwapShort: -4.2},
	"AUDUSD": {Symbol: "AUDUSD", SwapLong: -1.5, SwapShort: -1.2},
	"XAUUSD": {Symbol: "XAUUSD", SwapLong: -8.5, SwapShort: 2.3},
	"XAGUSD": {Symbol: "XAGUSD", SwapLong: -3.2, SwapShort: 1.1},
	"USOIL":  {Symbol: "USOIL", SwapLong: -2.8, SwapShort: -1.5},
	"BTCUSD": {Symbol: "BTCUSD", SwapLong: -15.2, SwapShort: -12.8},
	"ETHUSD": {Symbol: "ETHUSD", SwapLong: -8.5, SwapShort: -6.2},
	"NAS100": {Symbol: "NAS100", SwapLong: -1.2, SwapShort: -0.8},
	"SPX500": {Symbol: "SPX500", SwapLong: -0.9, SwapShort: -0.6},
	"US30":   {Symbol: "US30", SwapLong: -1.1, SwapShort: -0.7},
	"GER40":  {Symbol: "GER40", SwapLong: -0.8, SwapShort: -0.5},
}

type localEntry struct {
	rate    models.SwapRate
	expires time.Time
}

// SwapRateService resolves swap rates through an in-process map, the
// shared cache, the provider and the fallback table in that order.
// Concurrent lookups for the same symbol collapse into a single
// provider call.
type SwapRateService struct {
	provider Provider
	cache    RateCache
	ttl      time.Duration
	logger   *zap.Logger
	group    singleflight.Group
	clock    func() time.Time

	mu    sync.Mutex
	local map[string]localEntry
}

func NewSwapRateService(provider Provider, cache RateCache, ttl time.Duration, logger *zap.Logger) *SwapRateService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SwapRateService{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		clock:    time.Now,
		local:    make(map[string]localEntry),
	}
}

// SwapRates resolves all requested symbols. It never returns an error;
// unknown symbols get the default rate.
func (s *SwapRateService) SwapRates(ctx context.Context, symbols []string) []models.SwapRate {
	rates := make([]models.SwapRate, 0, len(symbols))
	for _, symbol := range symbols {
		rates = append(rates, s.SwapRate(ctx, symbol))
	}
	return rates
}

func (s *SwapRateService) SwapRate(ctx context.Context, symbol string) models.SwapRate {
	result, _, _ := s.group.Do(symbol, func() (interface{}, error) {
		return s.resolve(ctx, symbol), nil
	})
	return result.(models.SwapRate)
}

func (s *SwapRateService) resolve(ctx context.Context, symbol string) models.SwapRate {
	if rate, ok := s.localGet(symbol); ok {
		return rate
	}

	if s.cache != nil {
		if rate, err := s.cache.Get(ctx, symbol); err == nil {
			s.localSet(symbol, rate)
			return rate
		}
	}

	if s.provider != nil {
		rate, err := s.provider.FetchSwapRate(ctx, symbol)
		if err == nil {
			rate.LastUpdated = s.clock().UTC()
			s.localSet(symbol, rate)
			if s.cache != nil {
				s.cache.Set(ctx, rate, s.ttl)
			}
			return rate
		}
		s.logger.Warn("swap rate provider lookup failed",
			util.String("symbol", symbol), util.ErrorField(err))
	}

	if fallback, ok := fallbackSwapRates[symbol]; ok {
		fallback.LastUpdated = s.clock().UTC()
		return fallback
	}

	return models.SwapRate{
		Symbol:      symbol,
		SwapLong:    -1.0,
		SwapShort:   -1.0,
		LastUpdated: s.clock().UTC(),
	}
}

func (s *SwapRateService) localGet(symbol string) (models.SwapRate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[symbol]
	if !ok || s.clock().After(entry.expires) {
		delete(s.local, symbol)
		return models.SwapRate{}, false
	}
	return entry.rate, true
}

func (s *SwapRateService) localSet(symbol string, rate models.SwapRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[symbol] = localEntry{rate: rate, expires: s.clock().Add(s.ttl)}
}
