package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettleTransfer applies the atomic double-entry block: conditional sender
// debit of amount+fee, recipient credit of amount, and two completed ledger
// rows sharing one group id. Either every step commits or none do.
//
// The balance check runs inside the same transaction as the debit, and the
// write carries a version predicate, so two concurrent transfers from one
// sender cannot both pass against a stale read. The caller retries
// store.ErrConcurrentModification against fresh state.
func (s *Service) SettleTransfer(ctx context.Context, params store.SettleTransferParams) (*models.LedgerEntry, *models.LedgerEntry, error) {
	send, receive, err := s.settleTransfer(ctx, params)
	return send, receive, busyAsConflict(err)
}

func (s *Service) settleTransfer(ctx context.Context, params store.SettleTransferParams) (*models.LedgerEntry, *models.LedgerEntry, error) {
	total := params.Amount.Add(params.FeeInAsset)

	zap.L().Info("Settling transfer",
		zap.String("sender_id", params.SenderId),
		zap.String("recipient_id", params.RecipientId),
		zap.String("asset", params.Asset),
		zap.String("amount", params.Amount.String()),
		zap.String("fee_in_asset", params.FeeInAsset.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Idempotent replay: a request id already on a completed entry returns
	// the original pair instead of settling twice.
	if params.RequestId != "" {
		var groupId string
		err := tx.QueryRowContext(ctx, queryFindGroupByRequestId, params.RequestId).Scan(&groupId)
		if err == nil {
			zap.L().Warn("Duplicate transfer request, returning original entries",
				zap.String("request_id", params.RequestId),
				zap.String("group_id", groupId))
			return s.entryPairByGroup(ctx, tx, groupId)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("failed to check for duplicate request: %w", err)
		}
	}

	// Sender debit
	sender, err := getHoldingForUpdate(ctx, tx, params.SenderId, params.Asset)
	if err != nil {
		return nil, nil, err
	}
	if sender == nil || sender.quantity.LessThan(total) {
		return nil, nil, fmt.Errorf("%s balance covers %s, need %s: %w",
			params.Asset, senderQuantity(sender), total.String(), store.ErrInsufficientBalance)
	}
	if err := updateHolding(ctx, tx, params.SenderId, params.Asset, sender.quantity.Sub(total), sender.basis, sender.version); err != nil {
		return nil, nil, err
	}

	// Recipient credit. A receive is not a cost-basis event, so an existing
	// basis is left untouched and a fresh holding starts at zero.
	recipient, err := getHoldingForUpdate(ctx, tx, params.RecipientId, params.Asset)
	if err != nil {
		return nil, nil, err
	}
	if recipient == nil {
		if err := insertHolding(ctx, tx, params.RecipientId, params.Asset, params.Amount, decimal.Zero); err != nil {
			return nil, nil, err
		}
	} else {
		if err := updateHolding(ctx, tx, params.RecipientId, params.Asset, recipient.quantity.Add(params.Amount), recipient.basis, recipient.version); err != nil {
			return nil, nil, err
		}
	}

	// Ledger pair
	groupId := uuid.New().String()
	now := time.Now().UTC()
	usdValue := params.Amount.Mul(params.UnitPrice)

	send, err := insertLedgerEntry(ctx, tx, ledgerRow{
		userId:              params.SenderId,
		entryType:           models.EntrySend,
		asset:               params.Asset,
		amount:              params.Amount,
		unitPrice:           params.UnitPrice,
		usdValue:            usdValue,
		fee:                 params.FeeUsd,
		counterpartyAddress: params.RecipientAddress,
		counterpartyUserId:  params.RecipientId,
		groupId:             groupId,
		requestId:           params.RequestId,
		notes:               params.Notes,
		createdAt:           now,
	})
	if err != nil {
		return nil, nil, err
	}

	receive, err := insertLedgerEntry(ctx, tx, ledgerRow{
		userId:             params.RecipientId,
		entryType:          models.EntryReceive,
		asset:              params.Asset,
		amount:             params.Amount,
		unitPrice:          params.UnitPrice,
		usdValue:           usdValue,
		fee:                decimal.Zero,
		counterpartyUserId: params.SenderId,
		groupId:            groupId,
		notes:              params.Notes,
		createdAt:          now,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Transfer settled",
		zap.String("group_id", groupId),
		zap.String("send_entry_id", send.Id),
		zap.String("receive_entry_id", receive.Id))
	return send, receive, nil
}

// RecordTrade applies an atomic buy or sell: the holding mutation and the
// single completed ledger row commit together. A buy re-averages the cost
// basis; a sell debits under the same conditional predicate as a transfer.
func (s *Service) RecordTrade(ctx context.Context, params store.RecordTradeParams) (*models.LedgerEntry, error) {
	entry, err := s.recordTrade(ctx, params)
	return entry, busyAsConflict(err)
}

func (s *Service) recordTrade(ctx context.Context, params store.RecordTradeParams) (*models.LedgerEntry, error) {
	entryType := models.EntryBuy
	if params.Side == store.TradeSell {
		entryType = models.EntrySell
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if params.RequestId != "" {
		var groupId string
		err := tx.QueryRowContext(ctx, queryFindGroupByRequestId, params.RequestId).Scan(&groupId)
		if err == nil {
			entries, scanErr := s.entriesByGroup(ctx, tx, groupId)
			if scanErr != nil {
				return nil, scanErr
			}
			if len(entries) == 0 {
				return nil, fmt.Errorf("request %s recorded but entry missing", params.RequestId)
			}
			zap.L().Warn("Duplicate trade request, returning original entry",
				zap.String("request_id", params.RequestId))
			return &entries[0], nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate request: %w", err)
		}
	}

	holding, err := getHoldingForUpdate(ctx, tx, params.UserId, params.Asset)
	if err != nil {
		return nil, err
	}

	switch params.Side {
	case store.TradeBuy:
		if holding == nil {
			if err := insertHolding(ctx, tx, params.UserId, params.Asset, params.Amount, params.UnitPrice); err != nil {
				return nil, err
			}
		} else {
			newQuantity := holding.quantity.Add(params.Amount)
			newBasis := averageCostBasis(holding.quantity, holding.basis, params.Amount, params.UnitPrice)
			if err := updateHolding(ctx, tx, params.UserId, params.Asset, newQuantity, newBasis, holding.version); err != nil {
				return nil, err
			}
		}
	case store.TradeSell:
		if holding == nil || holding.quantity.LessThan(params.Amount) {
			return nil, fmt.Errorf("%s balance covers %s, need %s: %w",
				params.Asset, senderQuantity(holding), params.Amount.String(), store.ErrInsufficientBalance)
		}
		if err := updateHolding(ctx, tx, params.UserId, params.Asset, holding.quantity.Sub(params.Amount), holding.basis, holding.version); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown trade side %q", params.Side)
	}

	entry, err := insertLedgerEntry(ctx, tx, ledgerRow{
		userId:    params.UserId,
		entryType: entryType,
		asset:     params.Asset,
		amount:    params.Amount,
		unitPrice: params.UnitPrice,
		usdValue:  params.Amount.Mul(params.UnitPrice),
		fee:       decimal.Zero,
		groupId:   uuid.New().String(),
		requestId: params.RequestId,
		notes:     params.Notes,
		createdAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Trade recorded",
		zap.String("entry_id", entry.Id),
		zap.String("user_id", params.UserId),
		zap.String("side", string(params.Side)),
		zap.String("asset", params.Asset),
		zap.String("amount", params.Amount.String()))
	return entry, nil
}

// averageCostBasis blends an existing position's basis with a new lot.
func averageCostBasis(oldQty, oldBasis, addQty, addPrice decimal.Decimal) decimal.Decimal {
	totalQty := oldQty.Add(addQty)
	if totalQty.Sign() <= 0 {
		return oldBasis
	}
	totalCost := oldQty.Mul(oldBasis).Add(addQty.Mul(addPrice))
	return totalCost.DivRound(totalQty, 18)
}

func senderQuantity(state *holdingState) string {
	if state == nil {
		return "0"
	}
	return state.quantity.String()
}
