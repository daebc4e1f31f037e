package inventory

import (
	"context"

	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que una mutación rechazada no deje escrituras parciales.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		costRepo repository.CostRecordRepository,
	) error) error
}

// ItemLocker serializa las mutaciones del ledger de un mismo ítem. release debe llamarse
// siempre que Lock no devuelva error.
type ItemLocker interface {
	Lock(ctx context.Context, itemID string) (release func(), err error)
}
