package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
)

// seedLatte crea café (kg) y leche (ml) con stock, y un latte con receta en g / l.
func seedLatte(t *testing.T) (*appinv.LedgerUseCase, *appinv.RecipeUseCase, *memStore, *recordingLocker) {
	t.Helper()
	ledger, store, locker := newLedgerUC()
	seedItem(store, "coffee", "Café", "kg")
	seedItem(store, "milk", "Leche", "ml")
	store.putItem(entity.InventoryItem{
		ID:      "latte",
		VenueID: venue,
		Name:    "Latte",
		Unit:    "pcs",
		Active:  true,
		Recipe: []entity.RecipeLine{
			{IngredientID: "coffee", Quantity: d("18"), Unit: "g"},
			{IngredientID: "milk", Quantity: d("0.2"), Unit: "l"},
		},
	})

	for _, in := range []struct{ item, qty, price string }{
		{"coffee", "1", "40"},
		{"milk", "1000", "0.004"},
	} {
		_, err := ledger.RecordMovement(context.Background(), appinv.RecordMovementInput{
			VenueID: venue, ItemID: in.item, Kind: entity.MovementIn,
			Quantity: d(in.qty), Reason: "Initial stock", UnitPrice: dp(in.price), Timestamp: at(0),
		})
		require.NoError(t, err)
	}
	return ledger, appinv.NewRecipeUseCase(ledger), store, locker
}

func TestConsumeRecipe_ConvertsUnitsAndCostsFIFO(t *testing.T) {
	_, uc, store, locker := seedLatte(t)
	locker.acquired = nil

	out, err := uc.ConsumeRecipe(context.Background(), venue, "user-1", "latte", d("2"), "A-17")
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[string]int{}
	for i, c := range out {
		byID[c.IngredientID] = i
	}
	milk := out[byID["milk"]]
	coffee := out[byID["coffee"]]

	assert.True(t, milk.Quantity.Equal(d("400")), "0.2 l * 2 = 400 ml, got %s", milk.Quantity)
	assert.True(t, milk.TotalCost.Equal(d("1.6")))
	assert.True(t, coffee.Quantity.Equal(d("0.036")), "18 g * 2 = 0.036 kg, got %s", coffee.Quantity)
	assert.True(t, coffee.TotalCost.Equal(d("1.44")))

	assert.True(t, store.item("milk").CurrentStock.Equal(d("600")))
	assert.True(t, store.item("coffee").CurrentStock.Equal(d("0.964")))

	assert.Equal(t, []string{"coffee", "milk"}, locker.acquired, "bloqueos en orden ascendente")
	assert.Equal(t, 0, locker.heldCount())
}

func TestConsumeRecipe_MovementsAreImmutable(t *testing.T) {
	ledger, uc, _, _ := seedLatte(t)

	out, err := uc.ConsumeRecipe(context.Background(), venue, "user-1", "latte", d("1"), "A-18")
	require.NoError(t, err)

	_, err = ledger.DeleteMovement(context.Background(), venue, "milk", out[0].MovementID)
	assert.ErrorIs(t, err, domain.ErrImmutableMovement)
}

func TestConsumeRecipe_InsufficientStockRollsBackEveryIngredient(t *testing.T) {
	_, uc, store, _ := seedLatte(t)

	// 10 porciones = 2000 ml de leche; solo hay 1000. El café ya se había descontado.
	_, err := uc.ConsumeRecipe(context.Background(), venue, "user-1", "latte", d("10"), "A-19")

	assert.ErrorIs(t, err, domain.ErrNegativeBalance)
	assert.Equal(t, 1, store.movementCount("coffee"))
	assert.Equal(t, 1, store.movementCount("milk"))
	assert.True(t, store.item("coffee").CurrentStock.Equal(d("1")))
}

func TestConsumeRecipe_FallsBackToItemPrice(t *testing.T) {
	ledger, store, _ := newLedgerUC()
	seedItem(store, "sugar", "Azúcar", "g")
	store.putItem(entity.InventoryItem{
		ID: "tea", VenueID: venue, Name: "Té", Unit: "pcs", Active: true,
		Recipe: []entity.RecipeLine{{IngredientID: "sugar", Quantity: d("10"), Unit: "g"}},
	})
	// Entrada sin precio: no abre lote.
	_, err := ledger.RecordMovement(context.Background(), appinv.RecordMovementInput{
		VenueID: venue, ItemID: "sugar", Kind: entity.MovementIn,
		Quantity: d("500"), Reason: "Donación", Timestamp: at(0),
	})
	require.NoError(t, err)
	sugar := store.item("sugar")
	sugar.UnitPrice = d("0.01")
	store.putItem(sugar)

	out, err := appinv.NewRecipeUseCase(ledger).ConsumeRecipe(context.Background(), venue, "", "tea", d("3"), "B-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].TotalCost.Equal(d("0.3")), "30 g * 0.01")
}

func TestConsumeRecipe_Validation(t *testing.T) {
	_, uc, _, _ := seedLatte(t)

	_, err := uc.ConsumeRecipe(context.Background(), venue, "", "latte", d("0"), "A-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ConsumeRecipe(context.Background(), venue, "", "latte", d("1"), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ConsumeRecipe(context.Background(), venue, "", "milk", d("1"), "A-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin receta")

	_, err = uc.ConsumeRecipe(context.Background(), "venue-2", "", "latte", d("1"), "A-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
