package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetHolding(ctx context.Context, userId, symbol string) (*models.Holding, error) {
	var h models.Holding
	var quantityStr, basisStr string
	err := s.db.QueryRowContext(ctx, queryGetHolding, userId, symbol).Scan(
		&h.Id, &h.UserId, &h.Symbol, &quantityStr, &basisStr, &h.Version, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to get holding", zap.String("user_id", userId), zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("unable to get holding: %w", err)
	}

	if h.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity %q: %w", quantityStr, err)
	}
	if h.AvgCostBasis, err = decimal.NewFromString(basisStr); err != nil {
		return nil, fmt.Errorf("failed to parse cost basis %q: %w", basisStr, err)
	}
	return &h, nil
}

func (s *Service) GetHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, queryGetHoldings, userId)
	if err != nil {
		zap.L().Error("Failed to query holdings", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query holdings: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var quantityStr, basisStr string
		err := rows.Scan(&h.Id, &h.UserId, &h.Symbol, &quantityStr, &basisStr, &h.Version, &h.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan holding row: %w", err)
		}
		if h.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity %q: %w", quantityStr, err)
		}
		if h.AvgCostBasis, err = decimal.NewFromString(basisStr); err != nil {
			return nil, fmt.Errorf("failed to parse cost basis %q: %w", basisStr, err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}
	return holdings, nil
}

// AdjustHolding is the admin correction path. It bypasses transfer
// validation but still refuses to take a holding below zero and still uses
// the versioned conditional write, so concurrent settlements cannot be
// clobbered.
func (s *Service) AdjustHolding(ctx context.Context, params store.AdjustHoldingParams) (*models.Holding, error) {
	holding, err := s.adjustHolding(ctx, params)
	return holding, busyAsConflict(err)
}

func (s *Service) adjustHolding(ctx context.Context, params store.AdjustHoldingParams) (*models.Holding, error) {
	zap.L().Info("Adjusting holding",
		zap.String("user_id", params.UserId),
		zap.String("asset", params.Asset),
		zap.String("delta", params.Delta.String()),
		zap.String("note", params.Note))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getHoldingForUpdate(ctx, tx, params.UserId, params.Asset)
	if err != nil {
		return nil, err
	}

	if current == nil {
		if params.Delta.Sign() < 0 {
			return nil, fmt.Errorf("adjustment below zero for %s/%s: %w", params.UserId, params.Asset, store.ErrInsufficientBalance)
		}
		if err := insertHolding(ctx, tx, params.UserId, params.Asset, params.Delta, decimal.Zero); err != nil {
			return nil, err
		}
	} else {
		newQuantity := current.quantity.Add(params.Delta)
		if newQuantity.Sign() < 0 {
			return nil, fmt.Errorf("adjustment below zero for %s/%s: %w", params.UserId, params.Asset, store.ErrInsufficientBalance)
		}
		if err := updateHolding(ctx, tx, params.UserId, params.Asset, newQuantity, current.basis, current.version); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetHolding(ctx, params.UserId, params.Asset)
}

// holdingState is the in-transaction view of one holding row.
type holdingState struct {
	id       string
	quantity decimal.Decimal
	basis    decimal.Decimal
	version  int64
}

func getHoldingForUpdate(ctx context.Context, tx *sql.Tx, userId, symbol string) (*holdingState, error) {
	var state holdingState
	var quantityStr, basisStr string
	err := tx.QueryRowContext(ctx, queryGetHoldingForUpdate, userId, symbol).Scan(
		&state.id, &quantityStr, &basisStr, &state.version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read holding: %w", err)
	}

	if state.quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity %q: %w", quantityStr, err)
	}
	if state.basis, err = decimal.NewFromString(basisStr); err != nil {
		return nil, fmt.Errorf("failed to parse cost basis %q: %w", basisStr, err)
	}
	return &state, nil
}

func insertHolding(ctx context.Context, tx *sql.Tx, userId, symbol string, quantity, basis decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, queryInsertHolding,
		uuid.New().String(), userId, symbol, quantity.String(), basis.String())
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// updateHolding writes the new quantity with the version predicate. Zero
// rows affected means another writer got there first.
func updateHolding(ctx context.Context, tx *sql.Tx, userId, symbol string, quantity, basis decimal.Decimal, version int64) error {
	result, err := tx.ExecContext(ctx, queryUpdateHolding,
		quantity.String(), basis.String(), userId, symbol, version)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("holding update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}
