package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"security-service/internal/models"
)

type fakeProvider struct {
	rates map[string]models.SwapRate
	err   error
	calls int
}

func (f *fakeProvider) FetchSwapRate(_ context.Context, symbol string) (models.SwapRate, error) {
	f.calls++
	if f.err != nil {
		return models.SwapRate{}, f.err
	}
	rate, ok := f.rates[symbol]
	if !ok {
		return models.SwapRate{}, errors.New("unknown symbol")
	}
	return rate, nil
}

type fakeRateCache struct {
	rates map[string]models.SwapRate
	sets  []models.SwapRate
}

func (f *fakeRateCache) Get(_ context.Context, symbol string) (models.SwapRate, error) {
	rate, ok := f.rates[symbol]
	if !ok {
		return models.SwapRate{}, errors.New("cache miss")
	}
	return rate, nil
}

func (f *fakeRateCache) Set(_ context.Context, rate models.SwapRate, _ time.Duration) {
	f.sets = append(f.sets, rate)
}

func TestSwapRateCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	cache := &fakeRateCache{rates: map[string]models.SwapRate{
		"EURUSD": {Symbol: "EURUSD", SwapLong: -2.0, SwapShort: -1.5},
	}}
	svc := NewSwapRateService(provider, cache, time.Hour, zap.NewNop())

	rate := svc.SwapRate(context.Background(), "EURUSD")

	assert.Equal(t, -2.0, rate.SwapLong)
	assert.Zero(t, provider.calls)
}

func TestSwapRateProviderResultIsCached(t *testing.T) {
	provider := &fakeProvider{rates: map[string]models.SwapRate{
		"USDJPY": {Symbol: "USDJPY", SwapLong: 1.9, SwapShort: -4.0},
	}}
	cache := &fakeRateCache{rates: map[string]models.SwapRate{}}
	svc := NewSwapRateService(provider, cache, time.Hour, zap.NewNop())

	rate := svc.SwapRate(context.Background(), "USDJPY")

	assert.Equal(t, 1.9, rate.SwapLong)
	assert.False(t, rate.LastUpdated.IsZero())
	assert.Equal(t, 1, provider.calls)
	require.Len(t, cache.sets, 1)
	assert.Equal(t, "USDJPY", cache.sets[0].Symbol)
}

func TestSwapRateSecondLookupServedInProcess(t *testing.T) {
	provider := &fakeProvider{rates: map[string]models.SwapRate{
		"GBPUSD": {Symbol: "GBPUSD", SwapLong: -3.0, SwapShort: -2.0},
	}}
	cache := &fakeRateCache{rates: map[string]models.SwapRate{}}
	svc := NewSwapRateService(provider, cache, time.Hour, zap.NewNop())

	first := svc.SwapRate(context.Background(), "GBPUSD")
	second := svc.SwapRate(context.Background(), "GBPUSD")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls)
	assert.Len(t, cache.sets, 1)
}

func TestSwapRateProviderFailureUsesFallbackTable(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	svc := NewSwapRateService(provider, nil, time.Hour, zap.NewNop())

	rate := svc.SwapRate(context.Background(), "EURUSD")

	assert.Equal(t, -2.1, rate.SwapLong)
	assert.Equal(t, -1.8, rate.SwapShort)
}

func TestSwapRateUnknownSymbolDefault(t *testing.T) {
	svc := NewSwapRateService(nil, nil, time.Hour, zap.NewNop())

	rate := svc.SwapRate(context.Background(), "DOGEUSD")

	assert.Equal(t, "DOGEUSD", rate.Symbol)
	assert.Equal(t, -1.0, rate.SwapLong)
	assert.Equal(t, -1.0, rate.SwapShort)
}

func TestSwapRatesResolvesAllSymbols(t *testing.T) {
	svc := NewSwapRateService(nil, nil, time.Hour, zap.NewNop())

	rates := svc.SwapRates(context.Background(), []string{"EURUSD", "XAUUSD", "DOGEUSD"})

	require.Len(t, rates, 3)
	assert.Equal(t, -2.1, rates[0].SwapLong)
	assert.Equal(t, 2.3, rates[1].SwapShort)
	assert.Equal(t, -1.0, rates[2].SwapLong)
}
