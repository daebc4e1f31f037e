// Package expense contiene la máquina de estados de pago de los registros de costo.
// El estado nunca es fuente de verdad: se recalcula desde Amount, PaidAmount y DueDate.
package expense

import (
	"time"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RecomputeStatus devuelve el estado que corresponde a los montos y la fecha de vencimiento.
// Un registro cancelado permanece cancelado.
func RecomputeStatus(rec entity.CostRecord, now time.Time) entity.CostStatus {
	if rec.Status == entity.CostStatusCancelled {
		return entity.CostStatusCancelled
	}
	switch {
	case rec.PaidAmount.GreaterThanOrEqual(rec.Amount):
		return entity.CostStatusPaid
	case rec.PaidAmount.IsPositive():
		return entity.CostStatusPartiallyPaid
	case rec.DueDate != nil && rec.DueDate.Before(now):
		return entity.CostStatusOverdue
	}
	return entity.CostStatusPending
}

// Normalize limita PaidAmount a Amount, recalcula RemainingAmount y el estado.
func Normalize(rec *entity.CostRecord, now time.Time) {
	if rec.PaidAmount.IsNegative() {
		rec.PaidAmount = decimal.Zero
	}
	if rec.PaidAmount.GreaterThan(rec.Amount) {
		rec.PaidAmount = rec.Amount
	}
	rec.RemainingAmount = decimal.Max(decimal.Zero, rec.Amount.Sub(rec.PaidAmount))
	rec.Status = RecomputeStatus(*rec, now)
}

// SetPaidAmount asignación directa del monto pagado. El exceso se recorta a Amount y la
// diferencia con los abonos queda como asiento de corrección.
func SetPaidAmount(rec *entity.CostRecord, paid decimal.Decimal, now time.Time) {
	rec.PaidAmount = paid
	rec.UpdatedAt = now
	Normalize(rec, now)
	reconcilePayments(rec, now)
}

// SetAmount cambia el monto total; si queda por debajo de lo pagado, lo pagado se recorta.
func SetAmount(rec *entity.CostRecord, amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return domain.NewValidationError("amount", "must not be negative")
	}
	rec.Amount = amount
	rec.UpdatedAt = now
	Normalize(rec, now)
	reconcilePayments(rec, now)
	return nil
}

// PaymentsTotal suma de los abonos, correcciones incluidas.
func PaymentsTotal(payments []entity.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// reconcilePayments agrega un asiento de corrección cuando PaidAmount ya no coincide con
// la suma de los abonos.
func reconcilePayments(rec *entity.CostRecord, now time.Time) {
	diff := rec.PaidAmount.Sub(PaymentsTotal(rec.Payments))
	if diff.IsZero() {
		return
	}
	rec.Payments = append(rec.Payments, entity.Payment{
		Amount: diff,
		Method: entity.PaymentMethodCorrection,
		PaidAt: now,
	})
}

// SetDueDate cambia (o quita, con nil) la fecha de vencimiento.
func SetDueDate(rec *entity.CostRecord, due *time.Time, now time.Time) {
	rec.DueDate = due
	rec.UpdatedAt = now
	Normalize(rec, now)
}

// AddPayment registra un abono. A diferencia de SetPaidAmount, rechaza pagos que excedan
// el saldo en lugar de recortarlos.
func AddPayment(rec *entity.CostRecord, amount decimal.Decimal, method string, now time.Time) error {
	if rec.Status == entity.CostStatusCancelled {
		return &domain.PaymentError{Message: domain.MsgPaymentOnCancelled}
	}
	if !amount.IsPositive() {
		return &domain.PaymentError{Message: domain.MsgPaymentNotPositive}
	}
	remaining := decimal.Max(decimal.Zero, rec.Amount.Sub(rec.PaidAmount))
	if amount.GreaterThan(remaining) {
		return &domain.PaymentError{Message: domain.MsgPaymentExceeds}
	}

	rec.PaidAmount = rec.PaidAmount.Add(amount)
	rec.PaymentMethod = method
	rec.Payments = append(rec.Payments, entity.Payment{Amount: amount, Method: method, PaidAt: now})
	rec.UpdatedAt = now
	Normalize(rec, now)
	return nil
}

// Cancel estado terminal asignado explícitamente.
func Cancel(rec *entity.CostRecord, now time.Time) {
	rec.Status = entity.CostStatusCancelled
	rec.UpdatedAt = now
}
