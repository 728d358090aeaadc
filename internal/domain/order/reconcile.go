package order

import "github.com/shopspring/decimal"

// QuantityChange records a quantity edit to a line item that exists in both
// the live basket and the persisted order
type QuantityChange struct {
	ProductID   string
	OldQuantity decimal.Decimal
	NewQuantity decimal.Decimal
}

// ChangeSet is the ephemeral result of reconciling a live basket snapshot
// against the original line items of a persisted order. It is recomputed on
// every relevant basket mutation and never persisted.
type ChangeSet struct {
	Added    []LineItem
	Removed  []string
	Modified []QuantityChange
}

// HasChanges returns true iff any of the three collections is non-empty
func (c ChangeSet) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 || len(c.Modified) > 0
}

// Diff compares the current basket contents against the original line items
// of a previously persisted order. It is a pure function: inputs are never
// mutated and calling it twice on unchanged inputs yields structurally equal
// results. Membership and quantity decide equality; ordering does not.
//
// Added and Modified follow the iteration order of current, Removed follows
// the iteration order of original, so output order is deterministic.
func Diff(current, original []LineItem) ChangeSet {
	index := make(map[string]LineItem, len(original))
	for _, item := range original {
		index[item.ProductID] = item
	}

	var cs ChangeSet
	seen := make(map[string]struct{}, len(current))
	for _, item := range current {
		seen[item.ProductID] = struct{}{}
		orig, ok := index[item.ProductID]
		if !ok {
			cs.Added = append(cs.Added, item)
			continue
		}
		if !item.Quantity.Equal(orig.Quantity) {
			cs.Modified = append(cs.Modified, QuantityChange{
				ProductID:   item.ProductID,
				OldQuantity: orig.Quantity,
				NewQuantity: item.Quantity,
			})
		}
	}

	for _, item := range original {
		if _, ok := seen[item.ProductID]; !ok {
			cs.Removed = append(cs.Removed, item.ProductID)
		}
	}

	return cs
}
