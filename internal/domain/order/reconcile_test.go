package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Diff Tests
// ============================================

func TestDiff_NoChanges(t *testing.T) {
	original := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "2"),
		testItem(t, "eggs", UnitKindCount, "0.50", "12"),
	}
	current := CloneItems(original)

	cs := Diff(current, original)
	assert.False(t, cs.HasChanges())
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)
}

func TestDiff_OrderingDoesNotMatter(t *testing.T) {
	a := testItem(t, "apples", UnitKindWeight, "3.50", "2")
	b := testItem(t, "eggs", UnitKindCount, "0.50", "12")

	cs := Diff([]LineItem{b, a}, []LineItem{a, b})
	assert.False(t, cs.HasChanges())
}

func TestDiff_AddedRemovedModified(t *testing.T) {
	original := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "2"),
		testItem(t, "eggs", UnitKindCount, "0.50", "12"),
		testItem(t, "bread", UnitKindCount, "4.00", "1"),
	}
	current := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "3"), // modified
		testItem(t, "bread", UnitKindCount, "4.00", "1"),   // unchanged
		testItem(t, "honey", UnitKindCount, "7.00", "1"),   // added
	}
	// eggs removed

	cs := Diff(current, original)
	require.True(t, cs.HasChanges())

	require.Len(t, cs.Added, 1)
	assert.Equal(t, "honey", cs.Added[0].ProductID)

	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "eggs", cs.Removed[0])

	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "apples", cs.Modified[0].ProductID)
	assert.True(t, cs.Modified[0].OldQuantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, cs.Modified[0].NewQuantity.Equal(decimal.NewFromInt(3)))
}

func TestDiff_AgainstEmptyOriginal(t *testing.T) {
	current := []LineItem{testItem(t, "apples", UnitKindWeight, "3.50", "2")}

	cs := Diff(current, nil)
	require.Len(t, cs.Added, 1)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)
}

func TestDiff_EverythingRemoved(t *testing.T) {
	original := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "2"),
		testItem(t, "eggs", UnitKindCount, "0.50", "12"),
	}

	cs := Diff(nil, original)
	assert.Empty(t, cs.Added)
	assert.Equal(t, []string{"apples", "eggs"}, cs.Removed)
}

func TestDiff_PureAndIdempotent(t *testing.T) {
	original := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "2"),
		testItem(t, "eggs", UnitKindCount, "0.50", "12"),
	}
	current := []LineItem{
		testItem(t, "apples", UnitKindWeight, "3.50", "1"),
		testItem(t, "honey", UnitKindCount, "7.00", "1"),
	}

	first := Diff(current, original)
	second := Diff(current, original)
	assert.Equal(t, first, second)

	// inputs are never mutated
	assert.True(t, original[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, current[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestDiff_DeterministicOutputOrder(t *testing.T) {
	original := []LineItem{
		testItem(t, "a", UnitKindCount, "1.00", "1"),
		testItem(t, "b", UnitKindCount, "1.00", "1"),
		testItem(t, "c", UnitKindCount, "1.00", "1"),
	}
	current := []LineItem{
		testItem(t, "d", UnitKindCount, "1.00", "1"),
		testItem(t, "e", UnitKindCount, "1.00", "1"),
	}

	cs := Diff(current, original)
	assert.Equal(t, "d", cs.Added[0].ProductID)
	assert.Equal(t, "e", cs.Added[1].ProductID)
	assert.Equal(t, []string{"a", "b", "c"}, cs.Removed)
}
