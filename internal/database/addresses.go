package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) StoreAddress(ctx context.Context, params store.StoreAddressParams) (*models.WalletAddress, error) {
	zap.L().Info("Storing wallet address",
		zap.String("user_id", params.UserId),
		zap.String("asset", params.Asset),
		zap.String("network", params.Network),
		zap.String("address", params.Address))

	addressId := uuid.New().String()

	addr := &models.WalletAddress{}
	err := s.db.QueryRowContext(ctx, queryInsertAddress,
		addressId, params.UserId, params.Asset, params.Network, params.Address, params.Label, params.IsDefault).Scan(
		&addr.Id, &addr.UserId, &addr.Asset, &addr.Network, &addr.Address, &addr.Label, &addr.IsDefault, &addr.CreatedAt,
	)
	if err != nil {
		zap.L().Error("Failed to insert wallet address",
			zap.String("user_id", params.UserId),
			zap.String("asset", params.Asset),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert wallet address: %w", err)
	}

	return addr, nil
}

// FindAddressOwner resolves a submitted address string, scoped to an asset,
// to the owning account. A missing match returns (nil, nil, nil); the caller
// decides how to surface that.
func (s *Service) FindAddressOwner(ctx context.Context, address, asset string) (*models.User, *models.WalletAddress, error) {
	var user models.User
	var addr models.WalletAddress
	err := s.db.QueryRowContext(ctx, queryFindAddressOwner, address, asset).Scan(
		&user.Id, &user.Name, &user.Email, &user.Status, &user.CreatedAt, &user.UpdatedAt,
		&addr.Id, &addr.UserId, &addr.Asset, &addr.Network, &addr.Address, &addr.Label, &addr.IsDefault, &addr.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Debug("No wallet found for address",
			zap.String("address", address),
			zap.String("asset", asset))
		return nil, nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to query address owner", zap.String("address", address), zap.Error(err))
		return nil, nil, fmt.Errorf("unable to query address owner: %w", err)
	}

	return &user, &addr, nil
}
