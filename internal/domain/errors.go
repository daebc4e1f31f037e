package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los errores tipados de abajo envuelven a estos centinelas
// para que la capa HTTP pueda usar errors.Is sin conocer el tipo concreto.
var (
	ErrNotFound                 = errors.New("recurso no encontrado")
	ErrInvalidInput             = errors.New("entrada inválida")
	ErrDuplicate                = errors.New("recurso duplicado")
	ErrUnauthorized             = errors.New("no autorizado")
	ErrForbidden                = errors.New("acceso denegado")
	ErrConflict                 = errors.New("conflicto con el estado actual")
	ErrNegativeBalance          = errors.New("would cause negative balance")
	ErrInsufficientBatchHistory = errors.New("insufficient batch history to price movement")
	ErrImmutableMovement        = errors.New("movement is linked to an external reference")
	ErrPayment                  = errors.New("payment rejected")
	ErrLockNotObtained          = errors.New("no se pudo obtener el bloqueo del ítem")
)

// ValidationError entrada rechazada antes de tocar el ledger (cantidad, motivo, precio).
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NegativeBalanceError la reproducción cronológica dejaría el saldo bajo cero en MovementID.
type NegativeBalanceError struct {
	MovementID string
	At         time.Time
	Balance    decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("would cause negative balance (%s) at movement %s (%s)",
		e.Balance.String(), e.MovementID, e.At.Format(time.RFC3339))
}

func (e *NegativeBalanceError) Unwrap() error { return ErrNegativeBalance }

// InsufficientBatchHistoryError los lotes abiertos no cubren la cantidad y no hay precio manual.
// PartialCost es el costo de la porción que sí se pudo cubrir.
type InsufficientBatchHistoryError struct {
	MovementID  string
	Requested   decimal.Decimal
	Covered     decimal.Decimal
	PartialCost decimal.Decimal
}

func (e *InsufficientBatchHistoryError) Error() string {
	if e.MovementID == "" {
		return fmt.Sprintf("insufficient batch history: covered %s of %s",
			e.Covered.String(), e.Requested.String())
	}
	return fmt.Sprintf("insufficient batch history for movement %s: covered %s of %s",
		e.MovementID, e.Covered.String(), e.Requested.String())
}

func (e *InsufficientBatchHistoryError) Unwrap() error { return ErrInsufficientBatchHistory }

// ImmutableMovementError el movimiento pertenece a otra entidad (p. ej. una orden) y
// debe modificarse desde ella.
type ImmutableMovementError struct {
	MovementID string
	Reference  string
}

func (e *ImmutableMovementError) Error() string {
	return fmt.Sprintf("movement %s is linked to %s: modify the referencing entity instead",
		e.MovementID, e.Reference)
}

func (e *ImmutableMovementError) Unwrap() error { return ErrImmutableMovement }

// PaymentError pago no positivo, mayor al saldo o sobre un registro cancelado.
type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string { return e.Message }

func (e *PaymentError) Unwrap() error { return ErrPayment }

// Mensajes de PaymentError.
const (
	MsgPaymentNotPositive = "payment must be greater than zero"
	MsgPaymentExceeds     = "payment cannot exceed remaining amount"
	MsgPaymentOnCancelled = "cannot add payment to a cancelled cost record"
)
