package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición de un local: ítems bajo su mínimo
// con la cantidad sugerida para volver al stock objetivo.
type ReplenishmentUseCase struct {
	itemRepo repository.InventoryItemRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(itemRepo repository.InventoryItemRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{itemRepo: itemRepo}
}

// LowStock devuelve los ítems activos bajo su mínimo, ordenados por déficit relativo
// (mayor primero) y con prioridad 1 = más urgente.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, venueID string) ([]dto.LowStockDTO, error) {
	// 1. Ítems por debajo del mínimo
	rawItems, err := uc.itemRepo.ListBelowMinimum(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if len(rawItems) == 0 {
		return []dto.LowStockDTO{}, nil
	}

	// 2. Construir sugerencias
	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.LowStockDTO, 0, len(rawItems))
	for _, item := range rawItems {
		if !item.Active || !item.BelowMinimum() {
			continue
		}
		target := item.MaxStock
		if !target.IsPositive() {
			target = item.MinStock.Mul(decimal.NewFromFloat(1.5))
		}
		suggested := target.Sub(item.CurrentStock)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		deficit := item.MinStock.Sub(item.CurrentStock).Div(item.MinStock).Mul(hundred).Round(2)

		suggestions = append(suggestions, dto.LowStockDTO{
			ItemID:         item.ID,
			Name:           item.Name,
			Unit:           item.Unit,
			CurrentStock:   item.CurrentStock,
			MinStock:       item.MinStock,
			TargetStock:    target,
			SuggestedQty:   suggested,
			UnitPrice:      item.UnitPrice,
			EstimatedCost:  suggested.Mul(item.UnitPrice).Round(2),
			DeficitPercent: deficit,
		})
	}

	// 3. Ordenar: mayor déficit relativo; desempate por costo estimado y luego nombre.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.DeficitPercent.Equal(b.DeficitPercent) {
			return a.DeficitPercent.GreaterThan(b.DeficitPercent)
		}
		if !a.EstimatedCost.Equal(b.EstimatedCost) {
			return a.EstimatedCost.GreaterThan(b.EstimatedCost)
		}
		return a.Name < b.Name
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
