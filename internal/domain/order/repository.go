package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the narrow load/save contract against the external order
// store. No transactions are assumed beyond single-document read/write; the
// last writer at commit time wins. Implementations translate I/O failures to
// shared.ErrStoreUnavailable and missing documents to shared.ErrNotFound.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, order *Order) error
}

// ProfileRegistry supplies the candidate order ids a buyer has previously
// placed, most recent first
type ProfileRegistry interface {
	PlacedOrderIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error)
}
