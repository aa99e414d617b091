// Package stats derives the cached per-account aggregate view. The cache is
// never patched incrementally: every recompute reads current holdings and
// ledger history and overwrites the row in full, which is what makes
// back-to-back recomputes idempotent.
package stats

import (
	"time"

	"wallet-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compute derives AccountStats as a pure function of the inputs. Holdings
// whose symbol has no quote in prices are skipped for valuation but still
// count toward NumberOfAssets when non-zero.
func Compute(userId string, holdings []models.Holding, entries []models.LedgerEntry, prices map[string]decimal.Decimal, now time.Time) *models.AccountStats {
	stats := &models.AccountStats{
		UserId:         userId,
		LastCalculated: now,
	}

	for _, holding := range holdings {
		if holding.Quantity.Sign() <= 0 {
			continue
		}
		stats.NumberOfAssets++

		price, ok := prices[holding.Symbol]
		if !ok {
			continue
		}
		value := holding.Quantity.Mul(price)
		stats.PortfolioValue = stats.PortfolioValue.Add(value)
		if value.GreaterThan(stats.LargestHoldingValue) {
			stats.LargestHoldingValue = value
			stats.LargestHoldingSymbol = holding.Symbol
		}
	}

	for _, entry := range entries {
		stats.TotalTransactions++
		stats.TotalVolume = stats.TotalVolume.Add(entry.UsdValue)
		stats.TotalFees = stats.TotalFees.Add(entry.Fee)

		switch entry.Type {
		case models.EntryBuy:
			stats.BuyCount++
			if entry.Status == models.EntryCompleted {
				stats.TotalInvested = stats.TotalInvested.Add(entry.UsdValue)
			}
		case models.EntrySell:
			stats.SellCount++
		case models.EntrySend:
			stats.SendCount++
		case models.EntryReceive:
			stats.ReceiveCount++
		case models.EntrySwap:
			stats.SwapCount++
		case models.EntryStake:
			stats.StakeCount++
		case models.EntryUnstake:
			stats.UnstakeCount++
		}
	}

	stats.ProfitLoss = stats.PortfolioValue.Sub(stats.TotalInvested)
	if stats.TotalInvested.Sign() > 0 {
		stats.ProfitLossPct = stats.ProfitLoss.DivRound(stats.TotalInvested, 8).Mul(hundred)
	}

	return stats
}
