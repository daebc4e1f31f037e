package repository

import (
	"context"

	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
)

// ItemFilter criterios del listado de ítems activos de un local.
type ItemFilter struct {
	Category string // vacío = todas
	RawOnly  bool   // solo materias primas
	Limit    int
	Offset   int
}

// InventoryItemRepository define el puerto de persistencia para ítems de inventario.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila del ítem hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetByNameKey(ctx context.Context, venueID, nameKey string) (*entity.InventoryItem, error)
	ListByVenue(ctx context.Context, venueID string, filter ItemFilter) ([]*entity.InventoryItem, error)
	ListBelowMinimum(ctx context.Context, venueID string) ([]*entity.InventoryItem, error)
	// UpdateDerived persiste los campos derivados del ledger (stock y precio visible).
	UpdateDerived(ctx context.Context, item *entity.InventoryItem) error
	Deactivate(ctx context.Context, id string) error
}
