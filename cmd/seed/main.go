package main

import (
	"context"
	"fmt"

	"wallet-settlement-go/internal/common"
	"wallet-settlement-go/internal/config"
	"wallet-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedUser struct {
	id    string
	name  string
	email string
}

type seedAddress struct {
	userId  string
	asset   string
	network string
	address string
	label   string
}

type seedHolding struct {
	userId string
	asset  string
	amount string
}

var seedUsers = []seedUser{
	{"user-alice", "Alice Zhang", "alice@example.com"},
	{"user-bob", "Bob Martins", "bob@example.com"},
	{"user-carol", "Carol Okafor", "carol@example.com"},
}

var seedAddresses = []seedAddress{
	{"user-alice", "BTC", "bitcoin", "bc1qalice000000000000000000000000000000", "alice-btc"},
	{"user-alice", "ETH", "ethereum", "0xa11ce0000000000000000000000000000000dead", "alice-eth"},
	{"user-bob", "BTC", "bitcoin", "bc1qbob00000000000000000000000000000000", "bob-btc"},
	{"user-bob", "SOL", "solana", "BobSoLseed1111111111111111111111111111111111", "bob-sol"},
	{"user-carol", "ETH", "ethereum", "0xcaro10000000000000000000000000000000beef", "carol-eth"},
}

var seedHoldings = []seedHolding{
	{"user-alice", "BTC", "2"},
	{"user-alice", "ETH", "10"},
	{"user-bob", "BTC", "0.25"},
	{"user-carol", "ETH", "5"},
	{"user-carol", "SOL", "300"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	dbService, err := common.InitializeDatabase(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	for _, u := range seedUsers {
		if _, err := dbService.CreateUser(ctx, u.id, u.name, u.email); err != nil {
			zap.L().Warn("User already exists, skipping",
				zap.String("user_id", u.id),
				zap.Error(err))
			continue
		}
		fmt.Printf("Created user %s (%s)\n", u.name, u.id)
	}

	for _, a := range seedAddresses {
		addr, err := dbService.StoreAddress(ctx, store.StoreAddressParams{
			UserId:    a.userId,
			Asset:     a.asset,
			Network:   a.network,
			Address:   a.address,
			Label:     a.label,
			IsDefault: true,
		})
		if err != nil {
			zap.L().Warn("Address already registered, skipping",
				zap.String("address", a.address),
				zap.Error(err))
			continue
		}
		fmt.Printf("Registered %s address %s for %s\n", addr.Asset, addr.Address, a.userId)
	}

	for _, h := range seedHoldings {
		delta, err := decimal.NewFromString(h.amount)
		if err != nil {
			zap.L().Fatal("Invalid seed amount",
				zap.String("amount", h.amount),
				zap.Error(err))
		}
		holding, err := dbService.AdjustHolding(ctx, store.AdjustHoldingParams{
			UserId: h.userId,
			Asset:  h.asset,
			Delta:  delta,
			Note:   "initial seed",
		})
		if err != nil {
			zap.L().Error("Failed to seed holding",
				zap.String("user_id", h.userId),
				zap.String("asset", h.asset),
				zap.Error(err))
			continue
		}
		fmt.Printf("Seeded %s %s for %s\n", holding.Quantity.String(), holding.Symbol, h.userId)
	}

	fmt.Println("Seed complete")
}
