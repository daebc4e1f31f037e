package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLineDTO ingrediente de una receta.
type RecipeLineDTO struct {
	IngredientID string          `json:"ingredient_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit" validate:"required"`
}

// CreateItemRequest body para POST /api/inventory/items.
type CreateItemRequest struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Category      string          `json:"category" validate:"max=60"`
	Unit          string          `json:"unit" validate:"required,max=20"`
	MinStock      decimal.Decimal `json:"min_stock"`
	MaxStock      decimal.Decimal `json:"max_stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsRawMaterial bool            `json:"is_raw_material"`
	Recipe        []RecipeLineDTO `json:"recipe,omitempty" validate:"dive"`
}

// ItemResponse ítem con sus campos derivados.
type ItemResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStock      decimal.Decimal `json:"min_stock"`
	MaxStock      decimal.Decimal `json:"max_stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsRawMaterial bool            `json:"is_raw_material"`
	Recipe        []RecipeLineDTO `json:"recipe,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ValuationDTO valor FIFO del stock en mano.
type ValuationDTO struct {
	OnHand      decimal.Decimal `json:"on_hand"`
	FIFOValue   decimal.Decimal `json:"fifo_value"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// ItemDetailResponse ítem con su ledger y valoración.
type ItemDetailResponse struct {
	Item      ItemResponse       `json:"item"`
	Movements []MovementResponse `json:"movements"`
	Valuation ValuationDTO       `json:"valuation"`
}

// PurchaseRequest datos para generar el registro de costo de una compra.
type PurchaseRequest struct {
	Description   string          `json:"description" validate:"max=200"`
	CategoryID    string          `json:"category_id"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method" validate:"max=40"`
}

// RecordMovementRequest body para POST /api/inventory/items/:id/movements.
type RecordMovementRequest struct {
	Kind      string           `json:"kind" validate:"required,oneof=in out adjustment"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Reason    string           `json:"reason" validate:"required,max=200"`
	Reference string           `json:"reference,omitempty" validate:"max=120"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Purchase  *PurchaseRequest `json:"purchase,omitempty"`
}

// EditMovementRequest body para PATCH /api/inventory/items/:id/movements/:movementId.
type EditMovementRequest struct {
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	ClearPrice bool             `json:"clear_price,omitempty"`
	Reason     *string          `json:"reason,omitempty" validate:"omitempty,max=200"`
	Timestamp  *time.Time       `json:"timestamp,omitempty"`
}

// MovementResponse movimiento persistido.
type MovementResponse struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TotalCost   *decimal.Decimal `json:"total_cost"`
	ManualPrice bool             `json:"manual_price"`
	Reason      string           `json:"reason"`
	Reference   *string          `json:"reference"`
	Timestamp   time.Time        `json:"timestamp"`
}

// MovementResultResponse respuesta de registrar o editar un movimiento.
type MovementResultResponse struct {
	Item       ItemResponse        `json:"item"`
	Movement   MovementResponse    `json:"movement"`
	CostRecord *CostRecordResponse `json:"cost_record,omitempty"`
}

// PriceQuoteResponse costo FIFO de una salida hipotética.
type PriceQuoteResponse struct {
	Quantity  decimal.Decimal  `json:"quantity"`
	Covered   decimal.Decimal  `json:"covered"`
	TotalCost decimal.Decimal  `json:"total_cost"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ConsumeRecipeRequest body para POST /api/inventory/items/:id/consume.
type ConsumeRecipeRequest struct {
	Portions decimal.Decimal `json:"portions"`
	OrderID  string          `json:"order_id" validate:"required"`
}

// ConsumptionDTO salida registrada sobre un ingrediente.
type ConsumptionDTO struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	MovementID   string          `json:"movement_id"`
}

// LowStockDTO ítem bajo su mínimo con la cantidad sugerida de reposición.
type LowStockDTO struct {
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinStock       decimal.Decimal `json:"min_stock"`
	TargetStock    decimal.Decimal `json:"target_stock"`    // MaxStock, o MinStock * 1.5 si no hay máximo
	SuggestedQty   decimal.Decimal `json:"suggested_qty"`   // TargetStock - CurrentStock
	UnitPrice      decimal.Decimal `json:"unit_price"`      // último precio de compra
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`  // SuggestedQty * UnitPrice
	DeficitPercent decimal.Decimal `json:"deficit_percent"` // % bajo el mínimo
	Priority       int             `json:"priority"`        // 1 = más urgente
}
