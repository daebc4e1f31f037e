package repository

import (
	"context"

	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para los movimientos de un ítem.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	Update(ctx context.Context, movement *entity.StockMovement) error
	Delete(ctx context.Context, id string) error
	// ListByItem devuelve todos los movimientos del ítem (el orden no está garantizado).
	ListByItem(ctx context.Context, itemID string) ([]entity.StockMovement, error)
}
