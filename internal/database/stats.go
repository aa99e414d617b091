package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaveAccountStats overwrites the cached row in full. Last writer wins;
// concurrent recomputes are safe because every write is a complete
// re-derivation from current state.
func (s *Service) SaveAccountStats(ctx context.Context, stats *models.AccountStats) error {
	_, err := s.db.ExecContext(ctx, queryUpsertAccountStats,
		stats.UserId,
		stats.PortfolioValue.String(), stats.TotalInvested.String(),
		stats.ProfitLoss.String(), stats.ProfitLossPct.String(),
		stats.TotalTransactions, stats.BuyCount, stats.SellCount, stats.SendCount,
		stats.ReceiveCount, stats.SwapCount, stats.StakeCount, stats.UnstakeCount,
		stats.TotalVolume.String(), stats.TotalFees.String(),
		stats.NumberOfAssets, stats.LargestHoldingSymbol, stats.LargestHoldingValue.String(),
		stats.LastCalculated)
	if err != nil {
		zap.L().Error("Failed to save account stats", zap.String("user_id", stats.UserId), zap.Error(err))
		return fmt.Errorf("unable to save account stats: %w", err)
	}
	return nil
}

func (s *Service) GetAccountStats(ctx context.Context, userId string) (*models.AccountStats, error) {
	stats := &models.AccountStats{}
	var portfolioStr, investedStr, plStr, plPctStr, volumeStr, feesStr, largestStr string
	err := s.db.QueryRowContext(ctx, queryGetAccountStats, userId).Scan(
		&stats.UserId, &portfolioStr, &investedStr, &plStr, &plPctStr,
		&stats.TotalTransactions, &stats.BuyCount, &stats.SellCount, &stats.SendCount,
		&stats.ReceiveCount, &stats.SwapCount, &stats.StakeCount, &stats.UnstakeCount,
		&volumeStr, &feesStr, &stats.NumberOfAssets, &stats.LargestHoldingSymbol,
		&largestStr, &stats.LastCalculated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrStatsNotFound, userId)
	}
	if err != nil {
		zap.L().Error("Failed to get account stats", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to get account stats: %w", err)
	}

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&stats.PortfolioValue, portfolioStr},
		{&stats.TotalInvested, investedStr},
		{&stats.ProfitLoss, plStr},
		{&stats.ProfitLossPct, plPctStr},
		{&stats.TotalVolume, volumeStr},
		{&stats.TotalFees, feesStr},
		{&stats.LargestHoldingValue, largestStr},
	} {
		value, err := decimal.NewFromString(field.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stats field %q: %w", field.src, err)
		}
		*field.dst = value
	}
	return stats, nil
}
