package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCostRecordRequest body para POST /api/cost-records.
type CreateCostRecordRequest struct {
	Description   string          `json:"description" validate:"required,max=200"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	CategoryID    string          `json:"category_id"`
	PaymentMethod string          `json:"payment_method" validate:"max=40"`
}

// UpdateCostRecordRequest body para PATCH /api/cost-records/:id. Campos nil no cambian.
type UpdateCostRecordRequest struct {
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=200"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	PaidAmount   *decimal.Decimal `json:"paid_amount,omitempty"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
	ClearDueDate bool             `json:"clear_due_date,omitempty"`
	CategoryID   *string          `json:"category_id,omitempty"`
}

// AddPaymentRequest body para POST /api/cost-records/:id/payments.
type AddPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required,max=40"`
}

// PaymentDTO abono registrado.
type PaymentDTO struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt time.Time       `json:"paid_at"`
}

// CostRecordResponse registro de costo con su estado derivado.
type CostRecordResponse struct {
	ID               string          `json:"id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	DueDate          *time.Time      `json:"due_date"`
	Status           string          `json:"status"`
	CategoryID       string          `json:"category_id,omitempty"`
	SourceItemID     string          `json:"source_item_id,omitempty"`
	SourceMovementID string          `json:"source_movement_id,omitempty"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	Payments         []PaymentDTO    `json:"payments"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
