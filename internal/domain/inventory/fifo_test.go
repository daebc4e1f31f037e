package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/inventory"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func mov(id string, kind entity.MovementKind, qty string, price *decimal.Decimal, at time.Time) entity.StockMovement {
	return entity.StockMovement{
		ID:        id,
		ItemID:    "item-1",
		Kind:      kind,
		Quantity:  d(qty),
		UnitPrice: price,
		Reason:    entity.Reason{Kind: entity.ReasonCustom, Text: "test " + id},
		Timestamp: at,
	}
}

func TestAllocate_FIFOOrdering(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", dp("5"), t0),
		mov("b", entity.MovementIn, "10", dp("8"), t0.Add(time.Hour)),
	})

	alloc := inventory.Allocate(batches, d("15"))

	assert.True(t, alloc.TotalCost.Equal(d("90")), "10*5 + 5*8 = 90, got %s", alloc.TotalCost)
	require.NotNil(t, alloc.UnitPrice)
	assert.True(t, alloc.UnitPrice.Equal(d("6")))
	assert.True(t, alloc.Sufficient())
}

func TestAllocate_DoesNotMutateBatches(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", dp("5"), t0),
	})
	_ = inventory.Allocate(batches, d("4"))
	assert.True(t, batches[0].Remaining.Equal(d("10")))
}

func TestAllocate_PartialWhenBatchesRunOut(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "4", dp("2.5"), t0),
	})

	alloc := inventory.Allocate(batches, d("10"))

	assert.False(t, alloc.Sufficient())
	assert.True(t, alloc.Covered.Equal(d("4")))
	assert.True(t, alloc.Shortfall().Equal(d("6")))
	assert.True(t, alloc.TotalCost.Equal(d("10")))
	require.NotNil(t, alloc.UnitPrice)
	assert.True(t, alloc.UnitPrice.Equal(d("1")), "10 / 10 = 1")
}

func TestAllocate_NoPricedHistoryLeavesPriceUnset(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", nil, t0),
	})
	assert.Empty(t, batches, "una entrada sin precio no abre lote")

	alloc := inventory.Allocate(batches, d("3"))
	assert.Nil(t, alloc.UnitPrice)
	assert.True(t, alloc.TotalCost.IsZero())
	assert.False(t, alloc.Sufficient())
}

func TestBuildBatches_OutConsumesOldestFirst(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", dp("5"), t0),
		mov("b", entity.MovementIn, "10", dp("8"), t0.Add(time.Hour)),
		mov("c", entity.MovementOut, "12", nil, t0.Add(2*time.Hour)),
	})

	require.Len(t, batches, 2)
	assert.True(t, batches[0].Remaining.IsZero())
	assert.True(t, batches[1].Remaining.Equal(d("8")))
}

func TestBuildBatches_AdjustmentRescalesProportionally(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", dp("5"), t0),
		mov("b", entity.MovementIn, "10", dp("8"), t0.Add(time.Hour)),
		mov("c", entity.MovementAdjustment, "10", nil, t0.Add(2*time.Hour)),
	})

	require.Len(t, batches, 2)
	assert.True(t, batches[0].Remaining.Equal(d("5")))
	assert.True(t, batches[0].UnitPrice.Equal(d("5")))
	assert.True(t, batches[1].Remaining.Equal(d("5")))
	assert.True(t, batches[1].UnitPrice.Equal(d("8")))
}

func TestBuildBatches_AdjustmentWithoutOpenBatchesSeedsNothing(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementAdjustment, "25", nil, t0),
	})
	assert.True(t, batches.TotalRemaining().IsZero())
}

func TestValue_WeightedAverageOfOpenBatches(t *testing.T) {
	batches := inventory.BuildBatches([]entity.StockMovement{
		mov("a", entity.MovementIn, "10", dp("5"), t0),
		mov("b", entity.MovementIn, "10", dp("8"), t0.Add(time.Hour)),
		mov("c", entity.MovementOut, "5", nil, t0.Add(2*time.Hour)),
	})

	v := inventory.Value(batches)

	assert.True(t, v.OnHand.Equal(d("15")))
	assert.True(t, v.FIFOValue.Equal(d("105")), "5*5 + 10*8")
	assert.True(t, v.AverageCost.Equal(d("7")))
}

func TestWeightedAverageCost(t *testing.T) {
	got := inventory.WeightedAverageCost(d("10"), d("5"), d("10"), d("8"))
	assert.True(t, got.Equal(d("6.5")))
	assert.True(t, inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, decimal.Zero, d("3")).IsZero())
}
