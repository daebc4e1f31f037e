package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// ItemUseCase alta, consulta y baja de ítems de inventario.
type ItemUseCase struct {
	itemRepo repository.InventoryItemRepository
	movRepo  repository.StockMovementRepository
	log      *logger.Logger
}

// NewItemUseCase construye el caso de uso de ítems.
func NewItemUseCase(itemRepo repository.InventoryItemRepository, movRepo repository.StockMovementRepository, log *logger.Logger) *ItemUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ItemUseCase{itemRepo: itemRepo, movRepo: movRepo, log: log.Component("items")}
}

// CreateItem da de alta un ítem con stock 0. El nombre (sin acentos ni mayúsculas) es único por local.
func (uc *ItemUseCase) CreateItem(ctx context.Context, venueID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return nil, domain.NewValidationError("unit", "is required")
	}
	if in.MinStock.IsNegative() || in.MaxStock.IsNegative() {
		return nil, domain.NewValidationError("min_stock", "thresholds must not be negative")
	}
	if in.MaxStock.IsPositive() && in.MaxStock.LessThan(in.MinStock) {
		return nil, domain.NewValidationError("max_stock", "must not be lower than min_stock")
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.NewValidationError("unit_price", "must not be negative")
	}

	key := inventory.NameKey(name)
	existing, err := uc.itemRepo.GetByNameKey(ctx, venueID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Active {
		return nil, domain.ErrDuplicate
	}

	recipe := make([]entity.RecipeLine, 0, len(in.Recipe))
	for _, l := range in.Recipe {
		if !l.Quantity.IsPositive() {
			return nil, domain.NewValidationError("recipe.quantity", "must be greater than zero")
		}
		ingredient, err := uc.itemRepo.GetByID(ctx, l.IngredientID)
		if err != nil {
			return nil, err
		}
		if ingredient == nil || !ingredient.Active || ingredient.VenueID != venueID {
			return nil, domain.NewValidationError("recipe.ingredient_id", "unknown ingredient "+l.IngredientID)
		}
		unit := inventory.NormalizeUnit(l.Unit)
		if !inventory.Compatible(unit, ingredient.Unit) {
			return nil, domain.NewValidationError("recipe.unit", unit+" cannot be converted to "+ingredient.Unit)
		}
		recipe = append(recipe, entity.RecipeLine{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			Unit:         unit,
		})
	}

	now := time.Now()
	item := &entity.InventoryItem{
		ID:            uuid.New().String(),
		VenueID:       venueID,
		Name:          name,
		NameKey:       key,
		Category:      strings.TrimSpace(in.Category),
		Unit:          inventory.NormalizeUnit(in.Unit),
		CurrentStock:  decimal.Zero,
		MinStock:      in.MinStock,
		MaxStock:      in.MaxStock,
		UnitPrice:     in.UnitPrice,
		IsRawMaterial: in.IsRawMaterial,
		Recipe:        recipe,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	uc.log.Info().Str("item_id", item.ID).Str("venue_id", venueID).Str("name", item.Name).Msg("ítem creado")
	resp := dto.NewItemResponse(item)
	return &resp, nil
}

// GetItem devuelve el ítem con su ledger en orden cronológico y su valoración FIFO.
func (uc *ItemUseCase) GetItem(ctx context.Context, venueID, itemID string) (*dto.ItemDetailResponse, error) {
	item, err := uc.getOwned(ctx, venueID, itemID)
	if err != nil {
		return nil, err
	}
	movements, err := uc.movRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	ledger := inventory.NewLedger(*item, movements)

	ordered := ledger.Movements()
	out := make([]dto.MovementResponse, 0, len(ordered))
	for i := range ordered {
		out = append(out, dto.NewMovementResponse(&ordered[i]))
	}
	v := ledger.Valuation()
	return &dto.ItemDetailResponse{
		Item:      dto.NewItemResponse(item),
		Movements: out,
		Valuation: dto.ValuationDTO{OnHand: v.OnHand, FIFOValue: v.FIFOValue, AverageCost: v.AverageCost},
	}, nil
}

// ListItems lista los ítems activos del local por nombre. Pide un ítem de más para saber
// si hay otra página.
func (uc *ItemUseCase) ListItems(ctx context.Context, venueID string, q dto.ItemListQuery) (*dto.ItemListResponse, error) {
	q.Normalize()
	items, err := uc.itemRepo.ListByVenue(ctx, venueID, repository.ItemFilter{
		Category: strings.TrimSpace(q.Category),
		RawOnly:  q.RawOnly,
		Limit:    q.Limit + 1,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.ItemListResponse{Items: make([]dto.ItemResponse, 0, q.Limit), Limit: q.Limit, Offset: q.Offset}
	if len(items) > q.Limit {
		resp.HasMore = true
		items = items[:q.Limit]
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.NewItemResponse(it))
	}
	return resp, nil
}

// DeactivateItem da de baja lógica un ítem; su ledger se conserva.
func (uc *ItemUseCase) DeactivateItem(ctx context.Context, venueID, itemID string) error {
	if _, err := uc.getOwned(ctx, venueID, itemID); err != nil {
		return err
	}
	if err := uc.itemRepo.Deactivate(ctx, itemID); err != nil {
		return err
	}
	uc.log.Info().Str("item_id", itemID).Msg("ítem desactivado")
	return nil
}

func (uc *ItemUseCase) getOwned(ctx context.Context, venueID, itemID string) (*entity.InventoryItem, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, domain.ErrNotFound
	}
	if item.VenueID != venueID {
		return nil, domain.ErrForbidden
	}
	return item, nil
}
