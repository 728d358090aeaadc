package order

import (
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitKind distinguishes items sold by weight from items sold by count
type UnitKind string

const (
	UnitKindWeight UnitKind = "WEIGHT"
	UnitKindCount  UnitKind = "COUNT"
)

// IsValid checks if the kind is a valid UnitKind
func (k UnitKind) IsValid() bool {
	switch k {
	case UnitKindWeight, UnitKindCount:
		return true
	}
	return false
}

// String returns the string representation of UnitKind
func (k UnitKind) String() string {
	return string(k)
}

// LineItem is a purchasable unit within a basket or persisted order.
// ProductID is the stable identity; two line items with the same ProductID
// never coexist in one snapshot. A zero quantity is equivalent to absence
// and never persists.
type LineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	UnitKind    UnitKind
	Quantity    decimal.Decimal
}

// NewLineItem creates a validated line item
func NewLineItem(productID, productName string, unitPrice decimal.Decimal, kind UnitKind, quantity decimal.Decimal) (LineItem, error) {
	if productID == "" {
		return LineItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return LineItem{}, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if !kind.IsValid() {
		return LineItem{}, shared.NewDomainError("INVALID_UNIT_KIND", "Unit kind must be WEIGHT or COUNT")
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if err := ValidateQuantity(kind, quantity); err != nil {
		return LineItem{}, err
	}

	return LineItem{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		UnitKind:    kind,
		Quantity:    quantity,
	}, nil
}

// ValidateQuantity checks a quantity against the invariants for the unit
// kind: quantities are never negative, and fractional quantities are only
// allowed for items sold by weight.
func ValidateQuantity(kind UnitKind, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if kind == UnitKindCount && !quantity.Equal(quantity.Truncate(0)) {
		return shared.NewDomainError("INVALID_QUANTITY", "Count items require whole quantities")
	}
	return nil
}

// Amount returns Quantity * UnitPrice
func (i LineItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// WithQuantity returns a copy of the item carrying the given quantity
func (i LineItem) WithQuantity(quantity decimal.Decimal) (LineItem, error) {
	if err := ValidateQuantity(i.UnitKind, quantity); err != nil {
		return LineItem{}, err
	}
	i.Quantity = quantity
	return i, nil
}

// CloneItems returns a deep copy of a line item slice. Line items are value
// types, so a slice copy is sufficient.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// TotalAmount sums Quantity * UnitPrice across items
func TotalAmount(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}

// TotalQuantity sums quantities across items
func TotalQuantity(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity)
	}
	return total
}
