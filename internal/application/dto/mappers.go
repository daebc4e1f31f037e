package dto

import (
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
)

// NewItemResponse mapea un ítem de dominio a su respuesta.
func NewItemResponse(i *entity.InventoryItem) ItemResponse {
	recipe := make([]RecipeLineDTO, 0, len(i.Recipe))
	for _, l := range i.Recipe {
		recipe = append(recipe, RecipeLineDTO{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit})
	}
	return ItemResponse{
		ID:            i.ID,
		Name:          i.Name,
		Category:      i.Category,
		Unit:          i.Unit,
		CurrentStock:  i.CurrentStock,
		MinStock:      i.MinStock,
		MaxStock:      i.MaxStock,
		UnitPrice:     i.UnitPrice,
		IsRawMaterial: i.IsRawMaterial,
		Recipe:        recipe,
		Active:        i.Active,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// NewMovementResponse mapea un movimiento; Reference vacía se expone como null.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:          m.ID,
		Kind:        string(m.Kind),
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalCost:   m.TotalCost,
		ManualPrice: m.ManualPrice,
		Reason:      m.Reason.String(),
		Timestamp:   m.Timestamp,
	}
	if m.Reference != "" {
		ref := m.Reference
		resp.Reference = &ref
	}
	return resp
}

// NewCostRecordResponse mapea un registro de costo.
func NewCostRecordResponse(r *entity.CostRecord) CostRecordResponse {
	payments := make([]PaymentDTO, 0, len(r.Payments))
	for _, p := range r.Payments {
		payments = append(payments, PaymentDTO{Amount: p.Amount, Method: p.Method, PaidAt: p.PaidAt})
	}
	return CostRecordResponse{
		ID:               r.ID,
		Description:      r.Description,
		Amount:           r.Amount,
		PaidAmount:       r.PaidAmount,
		RemainingAmount:  r.RemainingAmount,
		DueDate:          r.DueDate,
		Status:           string(r.Status),
		CategoryID:       r.CategoryID,
		SourceItemID:     r.SourceItemID,
		SourceMovementID: r.SourceMovementID,
		PaymentMethod:    r.PaymentMethod,
		Payments:         payments,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
