// Package notify carries settlement outcomes to the in-app alert and email
// surfaces. Delivery is fire-and-forget from the engine's perspective: a
// transfer that settled financially is never reported as failed because a
// notification could not be sent.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind is the closed set of event variants.
type Kind string

const (
	TransferSent     Kind = "transfer_sent"
	TransferReceived Kind = "transfer_received"
	TradeRecorded    Kind = "trade_recorded"
	BalanceAdjusted  Kind = "balance_adjusted"
)

// Event is one settlement outcome addressed to one user.
type Event struct {
	Kind                Kind            `json:"kind"`
	UserId              string          `json:"user_id"`
	Asset               string          `json:"asset"`
	Amount              decimal.Decimal `json:"amount"`
	FeeUsd              decimal.Decimal `json:"fee_usd"`
	CounterpartyAddress string          `json:"counterparty_address,omitempty"`
	CounterpartyUserId  string          `json:"counterparty_user_id,omitempty"`
	GroupId             string          `json:"group_id,omitempty"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

// Sink receives in-app notification events.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// EmailSink receives events destined for email rendering. Content and
// delivery live outside this core.
type EmailSink interface {
	Send(ctx context.Context, event Event) error
}

// ZapSink logs events instead of delivering them. Default when no broker is
// configured.
type ZapSink struct{}

func (ZapSink) Emit(_ context.Context, event Event) error {
	zap.L().Info("Notification event",
		zap.String("kind", string(event.Kind)),
		zap.String("user_id", event.UserId),
		zap.String("asset", event.Asset),
		zap.String("amount", event.Amount.String()),
		zap.String("group_id", event.GroupId))
	return nil
}

// ZapEmailSink logs email events instead of delivering them.
type ZapEmailSink struct{}

func (ZapEmailSink) Send(_ context.Context, event Event) error {
	zap.L().Info("Email event",
		zap.String("kind", string(event.Kind)),
		zap.String("user_id", event.UserId),
		zap.String("asset", event.Asset),
		zap.String("amount", event.Amount.String()))
	return nil
}
