package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRecord is the persistent shape of an order. The engine's LineItem is
// a value object keyed by product id, so the repository maps to dedicated
// records instead of binding the domain structs directly.
type OrderRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerID     uuid.UUID `gorm:"type:uuid;index"`
	PickupAt    time.Time `gorm:"index"`
	Status      string    `gorm:"size:20;index"`
	PlacedAt    *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name for OrderRecord
func (OrderRecord) TableName() string {
	return "orders"
}

// OrderItemRecord is the persistent shape of an order line item
type OrderItemRecord struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index"`
	ProductID   string          `gorm:"size:100;index"`
	ProductName string          `gorm:"size:200"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2)"`
	UnitKind    string          `gorm:"size:10"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,4)"`
}

// TableName overrides the table name for OrderItemRecord
func (OrderItemRecord) TableName() string {
	return "order_items"
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var record OrderRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, errors.Join(shared.ErrStoreUnavailable, err)
	}
	return toDomain(&record), nil
}

// Save creates or updates an order and its line items in one transaction
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	record, items := toRecord(o)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(record).Error; err != nil {
			return err
		}

		// Replace the item set: delete rows no longer present, upsert the rest
		productIDs := make([]string, len(items))
		for i, item := range items {
			productIDs[i] = item.ProductID
		}
		del := tx.Where("order_id = ?", record.ID)
		if len(productIDs) > 0 {
			del = del.Where("product_id NOT IN ?", productIDs)
		}
		if err := del.Delete(&OrderItemRecord{}).Error; err != nil {
			return err
		}

		for i := range items {
			var existing OrderItemRecord
			err := tx.Where("order_id = ? AND product_id = ?", record.ID, items[i].ProductID).
				First(&existing).Error
			switch {
			case err == nil:
				items[i].ID = existing.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				items[i].ID = uuid.New()
			default:
				return err
			}
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Join(shared.ErrStoreUnavailable, err)
	}
	return nil
}

// StaleOrderIDs returns ids of placed orders whose pickup passed before the
// given instant. Used by the archive sweep to gather candidates.
func (r *GormOrderRepository) StaleOrderIDs(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&OrderRecord{}).
		Where("status = ? AND pickup_at < ?", order.StatusPlaced.String(), before).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Join(shared.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// toDomain maps a record to the domain aggregate
func toDomain(record *OrderRecord) *order.Order {
	items := make([]order.LineItem, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, order.LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			UnitKind:    order.UnitKind(item.UnitKind),
			Quantity:    item.Quantity,
		})
	}

	o := &order.Order{
		BuyerID:     record.BuyerID,
		PickupAt:    record.PickupAt,
		Status:      order.Status(record.Status),
		Items:       items,
		PlacedAt:    record.PlacedAt,
		CompletedAt: record.CompletedAt,
		CancelledAt: record.CancelledAt,
	}
	o.ID = record.ID
	o.CreatedAt = record.CreatedAt
	o.UpdatedAt = record.UpdatedAt
	return o
}

// toRecord maps the domain aggregate to persistent records
func toRecord(o *order.Order) (*OrderRecord, []OrderItemRecord) {
	items := make([]OrderItemRecord, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemRecord{
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			UnitKind:    item.UnitKind.String(),
			Quantity:    item.Quantity,
		})
	}

	return &OrderRecord{
		ID:          o.ID,
		BuyerID:     o.BuyerID,
		PickupAt:    o.PickupAt,
		Status:      o.Status.String(),
		PlacedAt:    o.PlacedAt,
		CompletedAt: o.CompletedAt,
		CancelledAt: o.CancelledAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}, items
}
