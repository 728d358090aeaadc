package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketday/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProfileRegistry implements order.ProfileRegistry over the orders table
type GormProfileRegistry struct {
	db *gorm.DB
}

// NewGormProfileRegistry creates a new GormProfileRegistry
func NewGormProfileRegistry(db *gorm.DB) *GormProfileRegistry {
	return &GormProfileRegistry{db: db}
}

// PlacedOrderIDs returns the ids of orders the buyer has placed, most recent first
func (r *GormProfileRegistry) PlacedOrderIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&OrderRecord{}).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Join(shared.ErrStoreUnavailable, err)
	}
	return ids, nil
}
