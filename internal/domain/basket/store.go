package basket

import (
	"sync"

	"github.com/marketday/backend/internal/domain/order"
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Snapshot is an insertion-ordered, productID-unique collection of line
// items. Snapshots handed out by the store are copies; consumers never
// mutate the store's state through one.
type Snapshot []order.LineItem

// Find returns the item with the given product id, if present
func (s Snapshot) Find(productID string) (order.LineItem, bool) {
	for _, item := range s {
		if item.ProductID == productID {
			return item, true
		}
	}
	return order.LineItem{}, false
}

// IsEmpty returns true when the snapshot holds no line items
func (s Snapshot) IsEmpty() bool {
	return len(s) == 0
}

// TotalAmount sums Quantity * UnitPrice across the snapshot
func (s Snapshot) TotalAmount() decimal.Decimal {
	return order.TotalAmount(s)
}

// TotalQuantity sums quantities across the snapshot
func (s Snapshot) TotalQuantity() decimal.Decimal {
	return order.TotalQuantity(s)
}

// Store holds the single authoritative, mutable, observable line-item
// collection for the order currently being composed. It is the only writer
// of its snapshot: every mutation runs under the store's lock, completes
// fully, and emits exactly one snapshot to each subscriber, so observers
// never see an intermediate state regardless of caller threading.
type Store struct {
	mu          sync.Mutex
	items       []order.LineItem
	originID    string
	original    []order.LineItem
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewStore creates an empty basket store
func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]chan Snapshot),
	}
}

// Current returns a copy of the latest snapshot
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer of the basket. The returned channel
// replays the latest snapshot immediately and then delivers one snapshot per
// mutation in application order. A slow subscriber is coalesced to the
// latest value rather than blocking the writer. The cancel function must be
// called when the observer is done.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subscribers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Add inserts the item, or sums quantities when the product is already
// present. Accumulation is intentional: repeated adds of the same product
// from independent flows merge instead of overwriting each other. A merge
// never changes the stored item's unit kind; an add carrying a different
// kind for the same product is rejected so a count line can never pick up
// a fractional quantity.
func (s *Store) Add(item order.LineItem) error {
	if err := order.ValidateQuantity(item.UnitKind, item.Quantity); err != nil {
		return err
	}
	if item.Quantity.IsZero() {
		// a zero quantity is equivalent to absence
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			if s.items[i].UnitKind != item.UnitKind {
				return shared.NewDomainError("INVALID_UNIT_KIND", "Unit kind does not match the item already in the basket")
			}
			s.items[i].Quantity = s.items[i].Quantity.Add(item.Quantity)
			s.publishLocked()
			return nil
		}
	}
	s.items = append(s.items, item)
	s.publishLocked()
	return nil
}

// SetQuantity replaces the quantity of an existing item outright, with no
// accumulation. A zero quantity removes the entry.
func (s *Store) SetQuantity(productID string, quantity decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if err := order.ValidateQuantity(s.items[i].UnitKind, quantity); err != nil {
			return err
		}
		if quantity.IsZero() {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = quantity
		}
		s.publishLocked()
		return nil
	}

	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if quantity.IsZero() {
		// removing an absent entry is a no-op
		return nil
	}
	return shared.ErrNotFound
}

// Remove removes the item if present; removing an absent item is not an error
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.publishLocked()
			return
		}
	}
}

// Clear empties the snapshot
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.publishLocked()
}

// LoadFrom replaces the entire snapshot with the line items of a persisted
// order and records that order as the reconciliation origin. The load is
// rejected with ConflictingOrderLoad when a different origin's edits are
// still in flight, so an in-progress edit is never silently discarded; the
// caller must Discard or commit first.
func (s *Store) LoadFrom(items []order.LineItem, originID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.originID != "" && s.originID != originID &&
		len(s.items) > 0 && order.Diff(s.items, s.original).HasChanges() {
		return shared.ErrConflictingOrderLoad
	}

	loaded := make([]order.LineItem, 0, len(items))
	for _, item := range items {
		if !item.Quantity.IsZero() {
			loaded = append(loaded, item)
		}
	}
	s.items = loaded
	s.originID = originID
	s.original = order.CloneItems(loaded)
	s.publishLocked()
	return nil
}

// Rebase advances the reconciliation baseline to the given items under the
// given origin. The coordinator calls it after a successful commit so that
// an immediate re-diff reports no changes.
func (s *Store) Rebase(items []order.LineItem, originID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originID = originID
	s.original = order.CloneItems(items)
}

// Discard empties the basket and forgets the origin and baseline
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.originID = ""
	s.original = nil
	s.publishLocked()
}

// Origin returns the id of the persisted order this basket was loaded from,
// or the empty string when composing fresh
func (s *Store) Origin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originID
}

// OriginalItems returns a copy of the reconciliation baseline
func (s *Store) OriginalItems() []order.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return order.CloneItems(s.original)
}

// Changes reconciles the current snapshot against the baseline
func (s *Store) Changes() order.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return order.Diff(s.items, s.original)
}

// snapshotLocked copies the current items; callers must hold the lock
func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.items))
	copy(snap, s.items)
	return snap
}

// publishLocked delivers the current snapshot to every subscriber,
// coalescing to the latest value when a subscriber has not drained the
// previous one. Callers must hold the lock.
func (s *Store) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
