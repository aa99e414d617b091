package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssetsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeAssetsFile(t, `
assets:
  - symbol: btc
    network: bitcoin
    seed_price_usd: "40000"
  - symbol: ETH
    network: ethereum
`)

	registry, err := Load(path)
	require.NoError(t, err)

	assert.True(t, registry.Supported("BTC"))
	assert.True(t, registry.Supported("btc"), "symbols normalize to upper case")
	assert.True(t, registry.Supported("ETH"))
	assert.False(t, registry.Supported("XRP"))

	asset, ok := registry.Get("btc")
	require.True(t, ok)
	assert.Equal(t, "BTC", asset.Symbol)
	assert.Equal(t, "bitcoin", asset.Network)

	prices := registry.SeedPrices()
	require.Contains(t, prices, "BTC")
	assert.True(t, prices["BTC"].Equal(decimal.NewFromInt(40000)))
	assert.NotContains(t, prices, "ETH", "no seed price declared")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing symbol", "assets:\n  - network: bitcoin\n"},
		{"missing network", "assets:\n  - symbol: BTC\n"},
		{"bad seed price", "assets:\n  - symbol: BTC\n    network: bitcoin\n    seed_price_usd: \"abc\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeAssetsFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
