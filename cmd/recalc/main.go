package main

import (
	"context"
	"flag"
	"fmt"

	"wallet-settlement-go/internal/assets"
	"wallet-settlement-go/internal/common"
	"wallet-settlement-go/internal/config"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/stats"

	"go.uber.org/zap"
)

func main() {
	userId := flag.String("user", "", "Recalculate stats for a single user id (default: all users)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	registry, err := assets.Load(cfg.Server.AssetsFile)
	if err != nil {
		zap.L().Fatal("Failed to load asset registry",
			zap.String("file", cfg.Server.AssetsFile),
			zap.Error(err))
	}

	dbService, err := common.InitializeDatabase(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	prices := pricing.NewCache()
	prices.Load(registry.SeedPrices())

	statsSvc := stats.NewService(dbService, prices)

	if *userId != "" {
		result, err := statsSvc.Recalculate(ctx, *userId)
		if err != nil {
			zap.L().Fatal("Failed to recalculate stats",
				zap.String("user_id", *userId),
				zap.Error(err))
		}
		fmt.Printf("Recalculated stats for %s: portfolio $%s, pnl $%s (%s%%)\n",
			*userId,
			result.PortfolioValue.StringFixed(2),
			result.ProfitLoss.StringFixed(2),
			result.ProfitLossPct.StringFixed(2))
		return
	}

	refreshed, err := statsSvc.RefreshAll(ctx)
	if err != nil {
		zap.L().Fatal("Failed to recalculate stats", zap.Error(err))
	}
	fmt.Printf("Recalculated stats for %d users\n", refreshed)
}
