package stats

import (
	"context"
	"time"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service recomputes and persists the per-account statistics cache.
type Service struct {
	store  store.SettlementStore
	prices pricing.PriceSource
}

func NewService(st store.SettlementStore, prices pricing.PriceSource) *Service {
	return &Service{store: st, prices: prices}
}

// Recalculate re-derives one user's AccountStats from current holdings and
// ledger history and overwrites the cache row. Idempotent; safe to call
// concurrently for the same user.
func (s *Service) Recalculate(ctx context.Context, userId string) (*models.AccountStats, error) {
	holdings, err := s.store.GetHoldings(ctx, userId)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.GetLedgerEntries(ctx, userId)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]decimal.Decimal, len(holdings))
	for _, holding := range holdings {
		if _, ok := quotes[holding.Symbol]; ok {
			continue
		}
		price, err := s.prices.CurrentPrice(holding.Symbol)
		if err != nil {
			zap.L().Warn("No quote for held asset, skipping in valuation",
				zap.String("user_id", userId),
				zap.String("symbol", holding.Symbol))
			continue
		}
		quotes[holding.Symbol] = price
	}

	result := Compute(userId, holdings, entries, quotes, time.Now().UTC())
	if err := s.store.SaveAccountStats(ctx, result); err != nil {
		return nil, err
	}

	zap.L().Debug("Account stats recalculated",
		zap.String("user_id", userId),
		zap.String("portfolio_value", result.PortfolioValue.String()),
		zap.Int64("total_transactions", result.TotalTransactions))
	return result, nil
}

// RefreshAll sweeps every account. Used by the optional periodic
// drift-correction loop and the operator recovery tool; correctness never
// depends on it because mutations recompute synchronously.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, user := range users {
		if _, err := s.Recalculate(ctx, user.Id); err != nil {
			zap.L().Error("Failed to refresh stats",
				zap.String("user_id", user.Id),
				zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
