package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStatus gates whether an account may send or receive value.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserDeleted   UserStatus = "deleted"
)

// User represents a custodial account holder
type User struct {
	Id        string     `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Status    UserStatus `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// WalletAddress is a receiving address for one (user, asset, network).
// The (asset, network, address) triple is unique across all users, which is
// what makes recipient resolution unambiguous.
type WalletAddress struct {
	Id        string    `db:"id"`
	UserId    string    `db:"user_id"`
	Asset     string    `db:"asset"`
	Network   string    `db:"network"`
	Address   string    `db:"address"`
	Label     string    `db:"label"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

// Holding is one user's balance in one asset (hot data). Quantity never goes
// negative; the version column backs optimistic concurrency on mutation.
type Holding struct {
	Id           string          `db:"id"`
	UserId       string          `db:"user_id"`
	Symbol       string          `db:"symbol"`
	Quantity     decimal.Decimal `db:"quantity"`
	AvgCostBasis decimal.Decimal `db:"avg_cost_basis"`
	Version      int64           `db:"version"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// EntryType is the closed set of economic events the ledger records.
type EntryType string

const (
	EntryBuy     EntryType = "buy"
	EntrySell    EntryType = "sell"
	EntrySend    EntryType = "send"
	EntryReceive EntryType = "receive"
	EntrySwap    EntryType = "swap"
	EntryStake   EntryType = "stake"
	EntryUnstake EntryType = "unstake"
)

type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
	EntryCancelled EntryStatus = "cancelled"
)

// LedgerEntry is one immutable economic event (cold data). A transfer
// produces exactly two entries (send + receive) sharing a GroupId; the
// receive side never carries a fee.
type LedgerEntry struct {
	Id                  string          `db:"id"`
	UserId              string          `db:"user_id"`
	Type                EntryType       `db:"type"`
	Asset               string          `db:"asset"`
	Amount              decimal.Decimal `db:"amount"`
	UnitPrice           decimal.Decimal `db:"unit_price"`
	UsdValue            decimal.Decimal `db:"usd_value"`
	Fee                 decimal.Decimal `db:"fee"`
	Status              EntryStatus     `db:"status"`
	CounterpartyAddress string          `db:"counterparty_address"`
	CounterpartyUserId  string          `db:"counterparty_user_id"`
	GroupId             string          `db:"group_id"`
	RequestId           string          `db:"request_id"`
	Notes               string          `db:"notes"`
	CreatedAt           time.Time       `db:"created_at"`
}

// AccountStats is the cached aggregate view over one user's holdings and
// ledger history. It is always recomputed in full from current state, never
// patched incrementally.
type AccountStats struct {
	UserId               string          `json:"user_id" db:"user_id"`
	PortfolioValue       decimal.Decimal `json:"portfolio_value" db:"portfolio_value"`
	TotalInvested        decimal.Decimal `json:"total_invested" db:"total_invested"`
	ProfitLoss           decimal.Decimal `json:"profit_loss" db:"profit_loss"`
	ProfitLossPct        decimal.Decimal `json:"profit_loss_percentage" db:"profit_loss_pct"`
	TotalTransactions    int64           `json:"total_transactions" db:"total_transactions"`
	BuyCount             int64           `json:"buy_count" db:"buy_count"`
	SellCount            int64           `json:"sell_count" db:"sell_count"`
	SendCount            int64           `json:"send_count" db:"send_count"`
	ReceiveCount         int64           `json:"receive_count" db:"receive_count"`
	SwapCount            int64           `json:"swap_count" db:"swap_count"`
	StakeCount           int64           `json:"stake_count" db:"stake_count"`
	UnstakeCount         int64           `json:"unstake_count" db:"unstake_count"`
	TotalVolume          decimal.Decimal `json:"total_volume" db:"total_volume"`
	TotalFees            decimal.Decimal `json:"total_fees" db:"total_fees"`
	NumberOfAssets       int64           `json:"number_of_assets" db:"number_of_assets"`
	LargestHoldingSymbol string          `json:"largest_holding_symbol" db:"largest_holding_symbol"`
	LargestHoldingValue  decimal.Decimal `json:"largest_holding_value" db:"largest_holding_value"`
	LastCalculated       time.Time       `json:"last_calculated" db:"last_calculated"`
}

// CountForType returns the cached counter for one entry type.
func (s *AccountStats) CountForType(t EntryType) int64 {
	switch t {
	case EntryBuy:
		return s.BuyCount
	case EntrySell:
		return s.SellCount
	case EntrySend:
		return s.SendCount
	case EntryReceive:
		return s.ReceiveCount
	case EntrySwap:
		return s.SwapCount
	case EntryStake:
		return s.StakeCount
	case EntryUnstake:
		return s.UnstakeCount
	}
	return 0
}
