package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

// OrderReferencePrefix prefijo de la referencia de los consumos de una orden.
const OrderReferencePrefix = "order:"

// RecipeUseCase descuenta del inventario los ingredientes de un producto vendido.
type RecipeUseCase struct {
	ledger *LedgerUseCase
}

// NewRecipeUseCase construye el caso de uso sobre el mismo TxRunner y locker del ledger.
func NewRecipeUseCase(ledger *LedgerUseCase) *RecipeUseCase {
	return &RecipeUseCase{ledger: ledger}
}

// ConsumeRecipe registra una salida por cada ingrediente de la receta de productID,
// convertida a la unidad del ingrediente y multiplicada por portions. Todo ocurre en una
// transacción: si un ingrediente no tiene stock suficiente no se descuenta ninguno.
func (uc *RecipeUseCase) ConsumeRecipe(
	ctx context.Context,
	venueID, userID, productID string,
	portions decimal.Decimal,
	orderID string,
) ([]dto.ConsumptionDTO, error) {
	if !portions.IsPositive() {
		return nil, domain.NewValidationError("portions", "must be greater than zero")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.NewValidationError("order_id", "is required")
	}

	var product *entity.InventoryItem
	err := uc.ledger.txRunner.Run(ctx, func(itemRepo repository.InventoryItemRepository, _ repository.StockMovementRepository, _ repository.CostRecordRepository) error {
		var err error
		product, err = itemRepo.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, domain.ErrNotFound
	}
	if product.VenueID != venueID {
		return nil, domain.ErrForbidden
	}
	if len(product.Recipe) == 0 {
		return nil, domain.NewValidationError("recipe", "product has no recipe")
	}

	// Bloqueos en orden ascendente de ID para evitar interbloqueos entre órdenes concurrentes.
	ids := make([]string, 0, len(product.Recipe))
	seen := make(map[string]bool, len(product.Recipe))
	for _, line := range product.Recipe {
		if !seen[line.IngredientID] {
			seen[line.IngredientID] = true
			ids = append(ids, line.IngredientID)
		}
	}
	sort.Strings(ids)
	releases := make([]func(), 0, len(ids))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()
	for _, id := range ids {
		release, err := uc.ledger.locker.Lock(ctx, id)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}

	reference := OrderReferencePrefix + orderID
	reason := "Recipe consumption: " + product.Name
	var out []dto.ConsumptionDTO
	err = uc.ledger.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		costRepo repository.CostRecordRepository,
	) error {
		out = make([]dto.ConsumptionDTO, 0, len(product.Recipe))
		for _, line := range product.Recipe {
			ingredient, err := itemRepo.GetByID(ctx, line.IngredientID)
			if err != nil {
				return err
			}
			if ingredient == nil || !ingredient.Active {
				return domain.NewValidationError("recipe", "ingredient "+line.IngredientID+" not found")
			}
			qty := inventory.Convert(line.Quantity.Mul(portions), line.Unit, ingredient.Unit)

			input := RecordMovementInput{
				VenueID:   venueID,
				UserID:    userID,
				ItemID:    ingredient.ID,
				Kind:      entity.MovementOut,
				Quantity:  qty,
				Reason:    reason,
				Reference: reference,
			}
			res, err := uc.ledger.recordInTx(ctx, itemRepo, movRepo, costRepo, input)
			var insufficient *domain.InsufficientBatchHistoryError
			if errors.As(err, &insufficient) && ingredient.UnitPrice.IsPositive() {
				// Sin lotes suficientes: se costea al precio visible del ingrediente.
				price := ingredient.UnitPrice
				input.UnitPrice = &price
				res, err = uc.ledger.recordInTx(ctx, itemRepo, movRepo, costRepo, input)
			}
			if err != nil {
				return err
			}

			cost := decimal.Zero
			if res.Movement.TotalCost != nil {
				cost = *res.Movement.TotalCost
			}
			out = append(out, dto.ConsumptionDTO{
				IngredientID: ingredient.ID,
				Quantity:     qty,
				Unit:         ingredient.Unit,
				TotalCost:    cost,
				MovementID:   res.Movement.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.ledger.log.Info().
		Str("product_id", productID).
		Str("order", orderID).
		Str("portions", portions.String()).
		Int("ingredients", len(out)).
		Msg("receta consumida")
	return out, nil
}
