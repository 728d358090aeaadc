package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of an order
type Status string

const (
	// StatusDraft exists only transiently while a basket is being composed;
	// a draft order is never persisted.
	StatusDraft Status = "DRAFT"
	// StatusPlaced is the stored status from the first successful commit
	// until pickup. Locking past the edit cutoff is derived from time, not
	// written back, so a Placed order can still be cancelled after the
	// cutoff even though it can no longer be edited.
	StatusPlaced Status = "PLACED"
	// StatusLocked is the derived status once now has passed the edit cutoff
	StatusLocked Status = "LOCKED"
	// StatusCompleted marks a picked-up or auto-archived order
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled marks an order cancelled by explicit user action
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPlaced, StatusLocked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states in which the order can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPlaced || target == StatusCancelled
	case StatusPlaced:
		return target == StatusLocked || target == StatusCompleted || target == StatusCancelled
	case StatusLocked:
		return target == StatusCompleted
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

// Order is the persisted record of a buyer's weekly pickup order
type Order struct {
	shared.BaseEntity
	BuyerID     uuid.UUID
	PickupAt    time.Time
	Status      Status
	Items       []LineItem
	PlacedAt    *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// New creates a draft order for the given pickup instant. A draft requires a
// non-empty basket; it exists only in memory until the first commit.
func New(buyerID uuid.UUID, pickupAt time.Time, items []LineItem, now time.Time) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.ErrEmptyBasket
	}

	return &Order{
		BaseEntity: shared.NewBaseEntity(now),
		BuyerID:    buyerID,
		PickupAt:   pickupAt,
		Status:     StatusDraft,
		Items:      CloneItems(items),
	}, nil
}

// Place transitions the order from DRAFT to PLACED on first successful commit
func (o *Order) Place(now time.Time) error {
	if !o.Status.CanTransitionTo(StatusPlaced) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot place order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.ErrEmptyBasket
	}

	o.Status = StatusPlaced
	o.PlacedAt = &now
	o.UpdatedAt = now
	return nil
}

// ReplaceItems swaps the full line-item collection on an edit commit.
// Only allowed while the order is still editable by status; the time gate
// against the edit cutoff belongs to the coordinator.
func (o *Order) ReplaceItems(items []LineItem, now time.Time) error {
	if o.Status != StatusDraft && o.Status != StatusPlaced {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit items of an order in %s status", o.Status))
	}
	if len(items) == 0 {
		return shared.ErrEmptyBasket
	}

	o.Items = CloneItems(items)
	o.UpdatedAt = now
	return nil
}

// Complete marks the order as picked up or archived
func (o *Order) Complete(now time.Time) error {
	if !o.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}

	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel cancels the order by explicit user action
func (o *Order) Cancel(now time.Time) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}

	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}

// EffectiveStatus derives the time-dependent status without mutating the
// stored one: a Placed order reads as Locked past the edit cutoff and as
// Completed once pickup has passed.
func (o *Order) EffectiveStatus(now, editCutoff time.Time) Status {
	if o.Status != StatusPlaced {
		return o.Status
	}
	if !now.Before(o.PickupAt) {
		return StatusCompleted
	}
	if now.After(editCutoff) {
		return StatusLocked
	}
	return StatusPlaced
}

// TotalAmount returns the sum of all item amounts
func (o *Order) TotalAmount() decimal.Decimal {
	return TotalAmount(o.Items)
}

// TotalQuantity returns the sum of all item quantities
func (o *Order) TotalQuantity() decimal.Decimal {
	return TotalQuantity(o.Items)
}

// IsEmpty returns true when the order carries no remaining value or quantity
func (o *Order) IsEmpty() bool {
	return o.TotalQuantity().IsZero() && o.TotalAmount().IsZero()
}

// IsTerminal returns true if the order is completed or cancelled
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}
