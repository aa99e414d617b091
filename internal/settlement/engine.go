// Package settlement orchestrates internal transfers: recipient resolution,
// validation, fee pricing, the atomic double-entry mutation, ledger writes,
// and the downstream stats recompute and notifications.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-settlement-go/internal/assets"
	"wallet-settlement-go/internal/fees"
	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/notify"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/stats"
	"wallet-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxSettleRetries bounds internal retries on optimistic-lock conflicts
// before the conflict is surfaced to the caller.
const maxSettleRetries = 3

type Engine struct {
	store    store.SettlementStore
	registry *assets.Registry
	prices   pricing.PriceSource
	resolver *Resolver
	stats    *stats.Service
	sink     notify.Sink
	email    notify.EmailSink
}

func NewEngine(st store.SettlementStore, registry *assets.Registry, prices pricing.PriceSource, statsSvc *stats.Service, sink notify.Sink, email notify.EmailSink) *Engine {
	return &Engine{
		store:    st,
		registry: registry,
		prices:   prices,
		resolver: NewResolver(st),
		stats:    statsSvc,
		sink:     sink,
		email:    email,
	}
}

// TransferRequest is one inbound transfer submission. RequestId is the
// optional client idempotency key; a repeated id returns the original
// result instead of settling twice.
type TransferRequest struct {
	SenderId         string
	RecipientAddress string
	Asset            string
	Amount           decimal.Decimal
	Notes            string
	RequestId        string
}

type TransferResult struct {
	SendEntryId    string `json:"send_entry_id"`
	ReceiveEntryId string `json:"receive_entry_id"`
}

// Transfer validates and settles one internal transfer. Preconditions run
// in order and the first failure wins, before any mutation. The atomic
// block either fully commits or leaves state untouched.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount %s: %w", req.Amount.String(), store.ErrInvalidAmount)
	}
	if !e.registry.Supported(req.Asset) {
		return nil, fmt.Errorf("asset %q: %w", req.Asset, store.ErrUnsupportedAsset)
	}

	recipient, err := e.resolver.Resolve(ctx, req.RecipientAddress, req.Asset)
	if err != nil {
		return nil, err
	}
	if recipient.UserId == req.SenderId {
		return nil, fmt.Errorf("address %q belongs to the sender: %w", req.RecipientAddress, store.ErrSelfTransfer)
	}

	unitPrice, err := e.prices.CurrentPrice(req.Asset)
	if err != nil {
		return nil, fmt.Errorf("asset %q has no market price: %w", req.Asset, store.ErrUnsupportedAsset)
	}

	// Freeze the valuation for the whole settlement so the balance check,
	// the fee, and both ledger rows price the transfer identically.
	usdValue := req.Amount.Mul(unitPrice)
	feeUsd := fees.Compute(usdValue)
	feeInAsset := fees.InAsset(feeUsd, unitPrice)

	params := store.SettleTransferParams{
		RequestId:        req.RequestId,
		SenderId:         req.SenderId,
		RecipientId:      recipient.UserId,
		RecipientAddress: req.RecipientAddress,
		Asset:            req.Asset,
		Amount:           req.Amount,
		FeeInAsset:       feeInAsset,
		FeeUsd:           feeUsd,
		UnitPrice:        unitPrice,
		Notes:            req.Notes,
	}

	var send, receive *models.LedgerEntry
	for attempt := 1; ; attempt++ {
		send, receive, err = e.store.SettleTransfer(ctx, params)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrConcurrentModification) && attempt < maxSettleRetries {
			zap.L().Warn("Settlement conflict, retrying against fresh state",
				zap.String("sender_id", req.SenderId),
				zap.String("asset", req.Asset),
				zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}

	e.refreshStats(ctx, req.SenderId, recipient.UserId)

	occurredAt := send.CreatedAt
	e.emit(ctx, notify.Event{
		Kind:                notify.TransferSent,
		UserId:              req.SenderId,
		Asset:               req.Asset,
		Amount:              req.Amount,
		FeeUsd:              feeUsd,
		CounterpartyAddress: req.RecipientAddress,
		CounterpartyUserId:  recipient.UserId,
		GroupId:             send.GroupId,
		OccurredAt:          occurredAt,
	})
	e.emit(ctx, notify.Event{
		Kind:               notify.TransferReceived,
		UserId:             recipient.UserId,
		Asset:              req.Asset,
		Amount:             req.Amount,
		CounterpartyUserId: req.SenderId,
		GroupId:            receive.GroupId,
		OccurredAt:         occurredAt,
	})

	return &TransferResult{
		SendEntryId:    send.Id,
		ReceiveEntryId: receive.Id,
	}, nil
}

// TradeRequest records a completed buy or sell against a user's holdings.
type TradeRequest struct {
	UserId    string
	Side      store.TradeSide
	Asset     string
	Amount    decimal.Decimal
	Notes     string
	RequestId string
}

func (e *Engine) RecordTrade(ctx context.Context, req TradeRequest) (*models.LedgerEntry, error) {
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount %s: %w", req.Amount.String(), store.ErrInvalidAmount)
	}
	if !e.registry.Supported(req.Asset) {
		return nil, fmt.Errorf("asset %q: %w", req.Asset, store.ErrUnsupportedAsset)
	}
	if req.Side != store.TradeBuy && req.Side != store.TradeSell {
		return nil, fmt.Errorf("trade side %q: %w", req.Side, store.ErrInvalidAmount)
	}

	unitPrice, err := e.prices.CurrentPrice(req.Asset)
	if err != nil {
		return nil, fmt.Errorf("asset %q has no market price: %w", req.Asset, store.ErrUnsupportedAsset)
	}

	params := store.RecordTradeParams{
		RequestId: req.RequestId,
		UserId:    req.UserId,
		Side:      req.Side,
		Asset:     req.Asset,
		Amount:    req.Amount,
		UnitPrice: unitPrice,
		Notes:     req.Notes,
	}

	var entry *models.LedgerEntry
	for attempt := 1; ; attempt++ {
		entry, err = e.store.RecordTrade(ctx, params)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrConcurrentModification) && attempt < maxSettleRetries {
			zap.L().Warn("Trade conflict, retrying against fresh state",
				zap.String("user_id", req.UserId),
				zap.String("asset", req.Asset),
				zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}

	e.refreshStats(ctx, req.UserId)
	e.emit(ctx, notify.Event{
		Kind:       notify.TradeRecorded,
		UserId:     req.UserId,
		Asset:      req.Asset,
		Amount:     req.Amount,
		GroupId:    entry.GroupId,
		OccurredAt: entry.CreatedAt,
	})

	return entry, nil
}

// AdminAdjust is the separately audited correction path. It bypasses
// transfer validation but still refuses negative balances and still
// recomputes the stats cache.
func (e *Engine) AdminAdjust(ctx context.Context, userId, asset string, delta decimal.Decimal, note string) (*models.Holding, error) {
	holding, err := e.store.AdjustHolding(ctx, store.AdjustHoldingParams{
		UserId: userId,
		Asset:  asset,
		Delta:  delta,
		Note:   note,
	})
	if err != nil {
		return nil, err
	}

	e.refreshStats(ctx, userId)
	e.emit(ctx, notify.Event{
		Kind:       notify.BalanceAdjusted,
		UserId:     userId,
		Asset:      asset,
		Amount:     delta,
		OccurredAt: time.Now().UTC(),
	})
	return holding, nil
}

// refreshStats recomputes the cache for every affected account. Failures
// are logged, not surfaced: the cache is recoverable on demand and must not
// fail a settlement that already committed.
func (e *Engine) refreshStats(ctx context.Context, userIds ...string) {
	g, gctx := errgroup.WithContext(ctx)
	for _, userId := range userIds {
		userId := userId
		g.Go(func() error {
			_, err := e.stats.Recalculate(gctx, userId)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("Stats recompute after settlement failed", zap.Error(err))
	}
}

// emit delivers one event to the notification and email sinks. Delivery
// failure is logged and swallowed.
func (e *Engine) emit(ctx context.Context, event notify.Event) {
	if err := e.sink.Emit(ctx, event); err != nil {
		zap.L().Warn("Notification delivery failed",
			zap.String("kind", string(event.Kind)),
			zap.String("user_id", event.UserId),
			zap.Error(err))
	}
	if e.email == nil {
		return
	}
	if err := e.email.Send(ctx, event); err != nil {
		zap.L().Warn("Email delivery failed",
			zap.String("kind", string(event.Kind)),
			zap.String("user_id", event.UserId),
			zap.Error(err))
	}
}
