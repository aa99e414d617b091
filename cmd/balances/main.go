package main

import (
	"context"
	"fmt"

	"wallet-settlement-go/internal/assets"
	"wallet-settlement-go/internal/common"
	"wallet-settlement-go/internal/config"
	"wallet-settlement-go/internal/database"
	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/pricing"

	"go.uber.org/zap"
)

type reportStats struct {
	totalUsers        int
	totalHoldings     int
	usersWithHoldings int
}

func printHolding(holding models.Holding, prices *pricing.Cache, isLast bool) {
	symbol := common.BoxPrefix(isLast)

	valueText := "unpriced"
	if price, err := prices.CurrentPrice(holding.Symbol); err == nil {
		valueText = "$" + holding.Quantity.Mul(price).StringFixed(2)
	}

	fmt.Printf("%s %-10s: %20s (basis $%s, %s, v%d, updated: %s)\n",
		symbol,
		holding.Symbol,
		holding.Quantity.String(),
		holding.AvgCostBasis.StringFixed(2),
		valueText,
		holding.Version,
		holding.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user models.User, holdingCount int) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Status: %s\n", user.Status)
	fmt.Printf("│  Assets: %d\n", holdingCount)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.User, dbService *database.Service, prices *pricing.Cache) (int, error) {
	holdings, err := dbService.GetHoldings(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get holdings: %w", err)
	}

	nonZero := make([]models.Holding, 0, len(holdings))
	for _, holding := range holdings {
		if holding.Quantity.Sign() > 0 {
			nonZero = append(nonZero, holding)
		}
	}
	if len(nonZero) == 0 {
		return 0, nil
	}

	printUserHeader(user, len(nonZero))
	for i, holding := range nonZero {
		printHolding(holding, prices, i == len(nonZero)-1)
	}

	return len(nonZero), nil
}

func generateReport(ctx context.Context, users []models.User, dbService *database.Service, prices *pricing.Cache) reportStats {
	stats := reportStats{}

	for _, user := range users {
		stats.totalUsers++

		holdingCount, err := processUser(ctx, user, dbService, prices)
		if err != nil {
			zap.L().Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if holdingCount > 0 {
			stats.usersWithHoldings++
			stats.totalHoldings += holdingCount
		}
	}

	return stats
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

	prices := pricing.NewCache()
	if registry, err := assets.Load(cfg.Server.AssetsFile); err == nil {
		prices.Load(registry.SeedPrices())
	} else {
		zap.L().Warn("No asset registry, report values unpriced", zap.Error(err))
	}

	users, err := dbService.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to get users", zap.Error(err))
	}

	common.PrintHeader("HOLDINGS REPORT", common.DefaultWidth)
	stats := generateReport(ctx, users, dbService, prices)
	common.PrintFooter(fmt.Sprintf("Users: %d | With holdings: %d | Total holdings: %d",
		stats.totalUsers, stats.usersWithHoldings, stats.totalHoldings), common.DefaultWidth)
}
