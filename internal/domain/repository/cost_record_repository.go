package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
)

// CostRecordRepository define el puerto de persistencia para registros de costo.
type CostRecordRepository interface {
	Create(ctx context.Context, rec *entity.CostRecord) error
	GetByID(ctx context.Context, id string) (*entity.CostRecord, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CostRecord, error)
	GetBySourceMovement(ctx context.Context, movementID string) (*entity.CostRecord, error)
	Update(ctx context.Context, rec *entity.CostRecord) error
	AddPayment(ctx context.Context, recordID string, payment entity.Payment) error
	// ListOverdueCandidates registros sin pagos cuyo vencimiento ya pasó y aún no figuran como vencidos.
	ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]*entity.CostRecord, error)
}
