package database

import (
	"context"
	"errors"
	"testing"

	"wallet-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestAdjustHolding_CreateAndAccumulate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seedTransferUsers(t, service)

	first, err := service.AdjustHolding(ctx, store.AdjustHoldingParams{
		UserId: "alice",
		Asset:  "BTC",
		Delta:  decimal.RequireFromString("1.5"),
	})
	if err != nil {
		t.Fatalf("AdjustHolding failed: %v", err)
	}
	if !first.Quantity.Equal(mustDecimal(t, "1.5")) {
		t.Errorf("Expected 1.5 BTC, got %s", first.Quantity)
	}
	if first.Version != 1 {
		t.Errorf("Expected version 1 on create, got %d", first.Version)
	}

	second, err := service.AdjustHolding(ctx, store.AdjustHoldingParams{
		UserId: "alice",
		Asset:  "BTC",
		Delta:  decimal.RequireFromString("-0.5"),
	})
	if err != nil {
		t.Fatalf("AdjustHolding failed: %v", err)
	}
	if !second.Quantity.Equal(mustDecimal(t, "1")) {
		t.Errorf("Expected 1 BTC after adjustment, got %s", second.Quantity)
	}
	if second.Version != 2 {
		t.Errorf("Expected version bump to 2, got %d", second.Version)
	}
}

func TestAdjustHolding_RefusesNegative(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seedTransferUsers(t, service)
	giveHolding(t, service, "alice", "BTC", "1")

	_, err := service.AdjustHolding(ctx, store.AdjustHoldingParams{
		UserId: "alice",
		Asset:  "BTC",
		Delta:  decimal.RequireFromString("-2"),
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	holding, err := service.GetHolding(ctx, "alice", "BTC")
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	if !holding.Quantity.Equal(mustDecimal(t, "1")) {
		t.Errorf("Expected holding untouched at 1 BTC, got %s", holding.Quantity)
	}
}

func TestFindAddressOwner(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seedTransferUsers(t, service)

	if _, err := service.StoreAddress(ctx, store.StoreAddressParams{
		UserId:  "bob",
		Asset:   "BTC",
		Network: "bitcoin",
		Address: "bc1qbobaddress",
		Label:   "bob-main",
	}); err != nil {
		t.Fatalf("StoreAddress failed: %v", err)
	}

	user, addr, err := service.FindAddressOwner(ctx, "bc1qbobaddress", "BTC")
	if err != nil {
		t.Fatalf("FindAddressOwner failed: %v", err)
	}
	if user == nil || user.Id != "bob" {
		t.Fatalf("Expected bob as owner, got %+v", user)
	}
	if addr == nil || addr.Address != "bc1qbobaddress" {
		t.Fatalf("Expected address record back, got %+v", addr)
	}

	// Unknown address resolves to nothing, not an error
	user, addr, err = service.FindAddressOwner(ctx, "bc1qunknown", "BTC")
	if err != nil {
		t.Fatalf("FindAddressOwner failed: %v", err)
	}
	if user != nil || addr != nil {
		t.Errorf("Expected no owner for unknown address, got %+v / %+v", user, addr)
	}

	// Same address string under a different asset does not match
	user, _, err = service.FindAddressOwner(ctx, "bc1qbobaddress", "ETH")
	if err != nil {
		t.Fatalf("FindAddressOwner failed: %v", err)
	}
	if user != nil {
		t.Errorf("Expected no match for wrong asset, got %+v", user)
	}
}

func TestGetAccountStats_Missing(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.GetAccountStats(context.Background(), "nobody")
	if !errors.Is(err, store.ErrStatsNotFound) {
		t.Fatalf("Expected ErrStatsNotFound, got %v", err)
	}
}
