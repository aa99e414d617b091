package store

import (
	"context"

	"wallet-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// StoreAddressParams contains the parameters for registering a receiving
// wallet address.
type StoreAddressParams struct {
	UserId    string
	Asset     string
	Network   string
	Address   string
	Label     string
	IsDefault bool
}

// SettleTransferParams carries a fully validated and priced transfer into
// the atomic settlement block. Amount and FeeInAsset are denominated in the
// transferred asset; FeeUsd and UnitPrice are USD figures frozen at
// validation time so both ledger rows value the transfer identically.
type SettleTransferParams struct {
	RequestId        string // optional client idempotency key
	SenderId         string
	RecipientId      string
	RecipientAddress string
	Asset            string
	Amount           decimal.Decimal
	FeeInAsset       decimal.Decimal
	FeeUsd           decimal.Decimal
	UnitPrice        decimal.Decimal
	Notes            string
}

// TradeSide distinguishes the two trade directions.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// RecordTradeParams carries a priced buy or sell into the atomic trade block.
type RecordTradeParams struct {
	RequestId string
	UserId    string
	Side      TradeSide
	Asset     string
	Amount    decimal.Decimal
	UnitPrice decimal.Decimal
	Notes     string
}

// AdjustHoldingParams is the admin correction path. Delta may be negative;
// the write still refuses to take a holding below zero.
type AdjustHoldingParams struct {
	UserId string
	Asset  string
	Delta  decimal.Decimal
	Note   string
}

// LedgerFilter narrows a ledger history query. An empty Asset matches all
// assets; Limit <= 0 falls back to the backend default.
type LedgerFilter struct {
	Asset  string
	Limit  int
	Offset int
}

// SettlementStore defines the contract the settlement engine and the
// statistics cache require from a storage backend.
type SettlementStore interface {
	// --- Users / account directory ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)
	SetUserStatus(ctx context.Context, userId string, status models.UserStatus) (*models.User, error)

	// --- Wallet addresses ---
	StoreAddress(ctx context.Context, params StoreAddressParams) (*models.WalletAddress, error)
	FindAddressOwner(ctx context.Context, address, asset string) (*models.User, *models.WalletAddress, error)

	// --- Holdings ---
	GetHolding(ctx context.Context, userId, symbol string) (*models.Holding, error)
	GetHoldings(ctx context.Context, userId string) ([]models.Holding, error)
	AdjustHolding(ctx context.Context, params AdjustHoldingParams) (*models.Holding, error)

	// --- Settlement ---
	SettleTransfer(ctx context.Context, params SettleTransferParams) (send, receive *models.LedgerEntry, err error)
	RecordTrade(ctx context.Context, params RecordTradeParams) (*models.LedgerEntry, error)

	// --- Ledger ---
	GetLedgerEntries(ctx context.Context, userId string) ([]models.LedgerEntry, error)
	GetLedgerHistory(ctx context.Context, userId string, filter LedgerFilter) ([]models.LedgerEntry, error)
	GetEntriesByGroupId(ctx context.Context, groupId string) ([]models.LedgerEntry, error)

	// --- Statistics cache ---
	SaveAccountStats(ctx context.Context, stats *models.AccountStats) error
	GetAccountStats(ctx context.Context, userId string) (*models.AccountStats, error)

	// --- Lifecycle ---
	Close()
}
