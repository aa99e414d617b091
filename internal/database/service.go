package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.SettlementStore.
var _ store.SettlementStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	// _txlock=immediate takes the write lock at BEGIN, so concurrent write
	// transactions queue on _busy_timeout instead of failing their
	// read-to-write upgrade mid-transaction.
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// busyAsConflict maps SQLite lock contention onto the retryable conflict
// sentinel. Callers already retry ErrConcurrentModification against fresh
// state, which is the right response to losing the write lock too.
func busyAsConflict(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%v: %w", err, store.ErrConcurrentModification)
	}
	return err
}

func (s *Service) initSchema() error {
	schema := `
	-- Account holders
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);

	-- Receiving wallet addresses; (asset, network, address) is unique across
	-- all users so recipient resolution is unambiguous
	CREATE TABLE IF NOT EXISTS wallet_addresses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		asset TEXT NOT NULL,
		network TEXT NOT NULL,
		address TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		is_default BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(asset, network, address)
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_addresses_user ON wallet_addresses(user_id);
	CREATE INDEX IF NOT EXISTS idx_wallet_addresses_lookup ON wallet_addresses(address, asset);

	-- Per-user per-asset balances (hot data). Version backs optimistic
	-- locking on every mutation. Decimal columns are TEXT: REAL affinity
	-- would coerce to float64 and lose precision past 16 significant
	-- digits, breaking exact conservation on 18-dp fee conversions.
	CREATE TABLE IF NOT EXISTS holdings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity TEXT NOT NULL DEFAULT '0',
		avg_cost_basis TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, symbol)
	);

	CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings(user_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holdings_user_symbol ON holdings(user_id, symbol);

	-- Append-only ledger (cold data). Rows are never mutated once completed.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		asset TEXT NOT NULL,
		amount TEXT NOT NULL,
		unit_price TEXT NOT NULL DEFAULT '0',
		usd_value TEXT NOT NULL DEFAULT '0',
		fee TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'completed',
		counterparty_address TEXT NOT NULL DEFAULT '',
		counterparty_user_id TEXT NOT NULL DEFAULT '',
		group_id TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_user_asset ON ledger_entries(user_id, asset);
	CREATE INDEX IF NOT EXISTS idx_ledger_group ON ledger_entries(group_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_created_at ON ledger_entries(created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_request_id ON ledger_entries(request_id) WHERE request_id != '';

	-- Derived statistics cache, one row per user, overwritten in full on
	-- every recompute
	CREATE TABLE IF NOT EXISTS account_stats (
		user_id TEXT PRIMARY KEY,
		portfolio_value TEXT NOT NULL DEFAULT '0',
		total_invested TEXT NOT NULL DEFAULT '0',
		profit_loss TEXT NOT NULL DEFAULT '0',
		profit_loss_pct TEXT NOT NULL DEFAULT '0',
		total_transactions INTEGER NOT NULL DEFAULT 0,
		buy_count INTEGER NOT NULL DEFAULT 0,
		sell_count INTEGER NOT NULL DEFAULT 0,
		send_count INTEGER NOT NULL DEFAULT 0,
		receive_count INTEGER NOT NULL DEFAULT 0,
		swap_count INTEGER NOT NULL DEFAULT 0,
		stake_count INTEGER NOT NULL DEFAULT 0,
		unstake_count INTEGER NOT NULL DEFAULT 0,
		total_volume TEXT NOT NULL DEFAULT '0',
		total_fees TEXT NOT NULL DEFAULT '0',
		number_of_assets INTEGER NOT NULL DEFAULT 0,
		largest_holding_symbol TEXT NOT NULL DEFAULT '',
		largest_holding_value TEXT NOT NULL DEFAULT '0',
		last_calculated TIMESTAMP NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
