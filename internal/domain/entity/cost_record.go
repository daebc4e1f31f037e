package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostStatus estado de un registro de costo. Siempre se deriva de Amount, PaidAmount
// y DueDate, excepto Cancelled que se asigna explícitamente.
type CostStatus string

const (
	CostStatusPending       CostStatus = "pending"
	CostStatusPartiallyPaid CostStatus = "partially_paid"
	CostStatusPaid          CostStatus = "paid"
	CostStatusOverdue       CostStatus = "overdue"
	CostStatusCancelled     CostStatus = "cancelled"
)

// PaymentMethodCorrection método de los asientos que cuadran el historial de abonos con
// un PaidAmount asignado directamente o recortado. Su monto puede ser negativo.
const PaymentMethodCorrection = "correction"

// Payment abono registrado sobre un CostRecord. El historial solo crece: las correcciones
// se agregan como asientos nuevos.
type Payment struct {
	Amount decimal.Decimal
	Method string
	PaidAt time.Time
}

// CostRecord compra o gasto por pagar. Puede originarse en una entrada de inventario.
type CostRecord struct {
	ID               string
	VenueID          string
	Description      string
	Amount           decimal.Decimal
	PaidAmount       decimal.Decimal
	RemainingAmount  decimal.Decimal
	DueDate          *time.Time
	Status           CostStatus
	CategoryID       string
	SourceItemID     string // ítem de la compra que lo generó
	SourceMovementID string // movimiento de entrada que lo generó
	PaymentMethod    string // último método usado
	Payments         []Payment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
