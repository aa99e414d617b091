package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Asset describes one supported symbol. SeedPriceUsd is an optional
// bootstrap quote used until the live feed pushes a fresher one.
type Asset struct {
	Symbol       string `yaml:"symbol"`
	Network      string `yaml:"network"`
	SeedPriceUsd string `yaml:"seed_price_usd,omitempty"`
}

type fileConfig struct {
	Assets []Asset `yaml:"assets"`
}

// Registry is the closed set of assets the platform custodies. Transfers in
// any other symbol are rejected before touching storage.
type Registry struct {
	assets map[string]Asset
}

func Load(assetsFile string) (*Registry, error) {
	var assetsPath string
	if filepath.IsAbs(assetsFile) {
		assetsPath = assetsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, assetsFile)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", assetsFile, err)
	}

	var config fileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", assetsFile, err)
	}

	return NewRegistry(config.Assets)
}

func NewRegistry(list []Asset) (*Registry, error) {
	bySymbol := make(map[string]Asset, len(list))
	for i, asset := range list {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("asset at index %d missing symbol", i)
		}
		if asset.Network == "" {
			return nil, fmt.Errorf("asset at index %d missing network", i)
		}
		if asset.SeedPriceUsd != "" {
			if _, err := decimal.NewFromString(asset.SeedPriceUsd); err != nil {
				return nil, fmt.Errorf("asset %s has invalid seed price %q: %w", asset.Symbol, asset.SeedPriceUsd, err)
			}
		}
		symbol := normalize(asset.Symbol)
		asset.Symbol = symbol
		bySymbol[symbol] = asset
	}
	return &Registry{assets: bySymbol}, nil
}

// Supported reports whether the symbol is custodied by the platform.
func (r *Registry) Supported(symbol string) bool {
	_, ok := r.assets[normalize(symbol)]
	return ok
}

func (r *Registry) Get(symbol string) (Asset, bool) {
	asset, ok := r.assets[normalize(symbol)]
	return asset, ok
}

func (r *Registry) Symbols() []string {
	symbols := make([]string, 0, len(r.assets))
	for symbol := range r.assets {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// SeedPrices returns the bootstrap quotes declared in the assets file.
func (r *Registry) SeedPrices() map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal)
	for symbol, asset := range r.assets {
		if asset.SeedPriceUsd == "" {
			continue
		}
		price, err := decimal.NewFromString(asset.SeedPriceUsd)
		if err != nil {
			continue
		}
		prices[symbol] = price
	}
	return prices
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
