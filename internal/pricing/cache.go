package pricing

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable means no quote is cached for the requested symbol.
var ErrPriceUnavailable = errors.New("no market price for symbol")

// PriceSource is the quote feed consumed by the settlement engine and the
// statistics calculator.
type PriceSource interface {
	CurrentPrice(symbol string) (decimal.Decimal, error)
}

// Cache is an in-memory USD quote cache. Writers are the admin price feed
// and the seed prices from the asset registry; readers are every valuation
// path in the system.
type Cache struct {
	mu          sync.RWMutex
	prices      map[string]decimal.Decimal
	lastRefresh time.Time
}

func NewCache() *Cache {
	return &Cache{
		prices: make(map[string]decimal.Decimal),
	}
}

// Load replaces the full cache contents.
func (c *Cache) Load(quotes map[string]decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prices = make(map[string]decimal.Decimal, len(quotes))
	for symbol, price := range quotes {
		key := normalize(symbol)
		if key == "" || price.Sign() < 0 {
			continue
		}
		c.prices[key] = price
	}
	c.lastRefresh = time.Now().UTC()
}

// SetPrice upserts a single quote.
func (c *Cache) SetPrice(symbol string, price decimal.Decimal) {
	key := normalize(symbol)
	if key == "" || price.Sign() < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.prices[key] = price
	c.lastRefresh = time.Now().UTC()
}

func (c *Cache) CurrentPrice(symbol string) (decimal.Decimal, error) {
	key := normalize(symbol)
	if key == "" {
		return decimal.Zero, ErrPriceUnavailable
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	price, ok := c.prices[key]
	if !ok {
		return decimal.Zero, ErrPriceUnavailable
	}
	return price, nil
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
