package pricing

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	cache := NewCache()

	_, err := cache.CurrentPrice("BTC")
	assert.True(t, errors.Is(err, ErrPriceUnavailable))

	cache.SetPrice("btc", decimal.NewFromInt(40000))

	price, err := cache.CurrentPrice("BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(40000)))

	// Lookup is case and whitespace insensitive
	price, err = cache.CurrentPrice("  btc ")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(40000)))
}

func TestCacheRejectsBadQuotes(t *testing.T) {
	cache := NewCache()

	cache.SetPrice("", decimal.NewFromInt(100))
	cache.SetPrice("ETH", decimal.NewFromInt(-1))
	assert.Equal(t, 0, cache.Size())

	cache.Load(map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(40000),
		"":    decimal.NewFromInt(1),
		"BAD": decimal.NewFromInt(-5),
	})
	assert.Equal(t, 1, cache.Size())
	assert.False(t, cache.LastRefresh().IsZero())
}

func TestCacheLoadReplaces(t *testing.T) {
	cache := NewCache()
	cache.SetPrice("DOGE", decimal.RequireFromString("0.12"))

	cache.Load(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(40000)})

	_, err := cache.CurrentPrice("DOGE")
	assert.True(t, errors.Is(err, ErrPriceUnavailable), "Load should drop old quotes")
	assert.Equal(t, 1, cache.Size())
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache()
	cache.SetPrice("BTC", decimal.NewFromInt(40000))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.SetPrice("BTC", decimal.NewFromInt(int64(40000+n)))
			_, _ = cache.CurrentPrice("BTC")
		}(i)
	}
	wg.Wait()

	price, err := cache.CurrentPrice("BTC")
	require.NoError(t, err)
	assert.True(t, price.GreaterThanOrEqual(decimal.NewFromInt(40000)))
}
