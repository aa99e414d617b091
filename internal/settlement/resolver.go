package settlement

import (
	"context"
	"fmt"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"
)

// Recipient is the public profile of a resolved receiving account. No key
// material ever crosses this boundary.
type Recipient struct {
	UserId      string
	DisplayName string
	Email       string
}

// Resolver maps a submitted address string, scoped to an asset, to the
// owning account. Read-only.
type Resolver struct {
	store store.SettlementStore
}

func NewResolver(st store.SettlementStore) *Resolver {
	return &Resolver{store: st}
}

func (r *Resolver) Resolve(ctx context.Context, address, asset string) (*Recipient, error) {
	user, _, err := r.store.FindAddressOwner(ctx, address, asset)
	if err != nil {
		return nil, fmt.Errorf("recipient lookup failed: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s address %q: %w", asset, address, store.ErrRecipientNotFound)
	}
	if user.Status != models.UserActive {
		return nil, fmt.Errorf("account %s is %s: %w", user.Id, user.Status, store.ErrRecipientInactive)
	}

	return &Recipient{
		UserId:      user.Id,
		DisplayName: user.Name,
		Email:       user.Email,
	}, nil
}
