package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

// ledgerRow carries the fields for one ledger insert.
type ledgerRow struct {
	userId              string
	entryType           models.EntryType
	asset               string
	amount              decimal.Decimal
	unitPrice           decimal.Decimal
	usdValue            decimal.Decimal
	fee                 decimal.Decimal
	counterpartyAddress string
	counterpartyUserId  string
	groupId             string
	requestId           string
	notes               string
	createdAt           time.Time
}

func insertLedgerEntry(ctx context.Context, tx *sql.Tx, row ledgerRow) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{}
	var amountStr, unitPriceStr, usdValueStr, feeStr string
	err := tx.QueryRowContext(ctx, queryInsertLedgerEntry,
		uuid.New().String(), row.userId, string(row.entryType), row.asset,
		row.amount.String(), row.unitPrice.String(), row.usdValue.String(), row.fee.String(),
		string(models.EntryCompleted), row.counterpartyAddress, row.counterpartyUserId,
		row.groupId, row.requestId, row.notes, row.createdAt).Scan(
		&entry.Id, &entry.UserId, &entry.Type, &entry.Asset,
		&amountStr, &unitPriceStr, &usdValueStr, &feeStr, &entry.Status,
		&entry.CounterpartyAddress, &entry.CounterpartyUserId,
		&entry.GroupId, &entry.RequestId, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := parseEntryAmounts(entry, amountStr, unitPriceStr, usdValueStr, feeStr); err != nil {
		return nil, err
	}
	return entry, nil
}

func parseEntryAmounts(entry *models.LedgerEntry, amountStr, unitPriceStr, usdValueStr, feeStr string) error {
	var err error
	if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	if entry.UnitPrice, err = decimal.NewFromString(unitPriceStr); err != nil {
		return fmt.Errorf("failed to parse unit price %q: %w", unitPriceStr, err)
	}
	if entry.UsdValue, err = decimal.NewFromString(usdValueStr); err != nil {
		return fmt.Errorf("failed to parse usd value %q: %w", usdValueStr, err)
	}
	if entry.Fee, err = decimal.NewFromString(feeStr); err != nil {
		return fmt.Errorf("failed to parse fee %q: %w", feeStr, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(scanner rowScanner) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var amountStr, unitPriceStr, usdValueStr, feeStr string
	err := scanner.Scan(&entry.Id, &entry.UserId, &entry.Type, &entry.Asset,
		&amountStr, &unitPriceStr, &usdValueStr, &feeStr, &entry.Status,
		&entry.CounterpartyAddress, &entry.CounterpartyUserId,
		&entry.GroupId, &entry.RequestId, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		return entry, fmt.Errorf("unable to scan ledger entry: %w", err)
	}
	if err := parseEntryAmounts(&entry, amountStr, unitPriceStr, usdValueStr, feeStr); err != nil {
		return entry, err
	}
	return entry, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

// entriesByGroup reads a group's entries inside an open transaction.
func (s *Service) entriesByGroup(ctx context.Context, tx *sql.Tx, groupId string) ([]models.LedgerEntry, error) {
	rows, err := tx.QueryContext(ctx, queryGetEntriesByGroupId, groupId)
	if err != nil {
		return nil, fmt.Errorf("unable to query ledger group: %w", err)
	}
	return collectLedgerEntries(rows)
}

// entryPairByGroup returns a transfer group's send and receive entries, in
// that order.
func (s *Service) entryPairByGroup(ctx context.Context, tx *sql.Tx, groupId string) (*models.LedgerEntry, *models.LedgerEntry, error) {
	entries, err := s.entriesByGroup(ctx, tx, groupId)
	if err != nil {
		return nil, nil, err
	}

	var send, receive *models.LedgerEntry
	for i := range entries {
		switch entries[i].Type {
		case models.EntrySend:
			send = &entries[i]
		case models.EntryReceive:
			receive = &entries[i]
		}
	}
	if send == nil || receive == nil {
		return nil, nil, fmt.Errorf("ledger group %s is not a complete transfer pair", groupId)
	}
	return send, receive, nil
}

func (s *Service) GetEntriesByGroupId(ctx context.Context, groupId string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetEntriesByGroupId, groupId)
	if err != nil {
		return nil, fmt.Errorf("unable to query ledger group: %w", err)
	}
	return collectLedgerEntries(rows)
}

// GetLedgerEntries returns a user's full ledger history, newest first. The
// statistics calculator reads this; display paths should prefer
// GetLedgerHistory with a filter.
func (s *Service) GetLedgerEntries(ctx context.Context, userId string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetLedgerEntries, userId)
	if err != nil {
		zap.L().Error("Failed to query ledger entries", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query ledger entries: %w", err)
	}
	return collectLedgerEntries(rows)
}

func (s *Service) GetLedgerHistory(ctx context.Context, userId string, filter store.LedgerFilter) ([]models.LedgerEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows *sql.Rows
	var err error
	if filter.Asset == "" {
		rows, err = s.db.QueryContext(ctx, queryGetLedgerHistory, userId, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, queryGetLedgerHistoryByAsset, userId, filter.Asset, limit, offset)
	}
	if err != nil {
		zap.L().Error("Failed to query ledger history", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query ledger history: %w", err)
	}
	return collectLedgerEntries(rows)
}
