package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

var _ repository.CostRecordRepository = (*CostRecordRepo)(nil)

const costColumns = `id, venue_id, description, amount, paid_amount, remaining_amount, due_date, status,
	category_id, source_item_id, source_movement_id, payment_method, created_at, updated_at`

// CostRecordRepo implementación sobre PostgreSQL; los abonos viven en cost_payments.
type CostRecordRepo struct {
	q Querier
}

// NewCostRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCostRecordRepository(q Querier) *CostRecordRepo {
	return &CostRecordRepo{q: q}
}

// Create persiste el registro y sus abonos iniciales.
func (r *CostRecordRepo) Create(ctx context.Context, rec *entity.CostRecord) error {
	query := `INSERT INTO cost_records (` + costColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.VenueID, rec.Description, rec.Amount, rec.PaidAmount, rec.RemainingAmount,
		rec.DueDate, rec.Status, nullIfEmpty(rec.CategoryID), nullIfEmpty(rec.SourceItemID),
		nullIfEmpty(rec.SourceMovementID), rec.PaymentMethod, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cost record: %w", err)
	}
	for _, p := range rec.Payments {
		if err := r.AddPayment(ctx, rec.ID, p); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene el registro con sus abonos; nil si no existe.
func (r *CostRecordRepo) GetByID(ctx context.Context, id string) (*entity.CostRecord, error) {
	return r.getOne(ctx, `SELECT `+costColumns+` FROM cost_records WHERE id = $1`, id)
}

// GetForUpdate obtiene el registro bloqueando su fila.
func (r *CostRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.CostRecord, error) {
	return r.getOne(ctx, `SELECT `+costColumns+` FROM cost_records WHERE id = $1 FOR UPDATE`, id)
}

// GetBySourceMovement registro generado por una entrada de inventario; nil si no hay.
func (r *CostRecordRepo) GetBySourceMovement(ctx context.Context, movementID string) (*entity.CostRecord, error) {
	return r.getOne(ctx, `SELECT `+costColumns+` FROM cost_records WHERE source_movement_id = $1 FOR UPDATE`, movementID)
}

// Update reescribe montos, estado y datos descriptivos. Los abonos no se tocan.
func (r *CostRecordRepo) Update(ctx context.Context, rec *entity.CostRecord) error {
	query := `
		UPDATE cost_records
		SET description = $2, amount = $3, paid_amount = $4, remaining_amount = $5, due_date = $6,
			status = $7, category_id = $8, payment_method = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		rec.ID, rec.Description, rec.Amount, rec.PaidAmount, rec.RemainingAmount, rec.DueDate,
		rec.Status, nullIfEmpty(rec.CategoryID), rec.PaymentMethod, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cost record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddPayment agrega un abono al historial del registro.
func (r *CostRecordRepo) AddPayment(ctx context.Context, recordID string, p entity.Payment) error {
	query := `INSERT INTO cost_payments (cost_record_id, amount, method, paid_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, recordID, p.Amount, p.Method, p.PaidAt); err != nil {
		return fmt.Errorf("insert cost payment: %w", err)
	}
	return nil
}

// ListOverdueCandidates registros pendientes sin pagos y con vencimiento anterior a now.
func (r *CostRecordRepo) ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]*entity.CostRecord, error) {
	query := `SELECT ` + costColumns + ` FROM cost_records
		WHERE status = 'pending' AND paid_amount = 0 AND due_date < $1
		ORDER BY due_date LIMIT $2
		FOR UPDATE SKIP LOCKED`
	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue cost records: %w", err)
	}
	defer rows.Close()

	var out []*entity.CostRecord
	for rows.Next() {
		rec, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *CostRecordRepo) getOne(ctx context.Context, query string, args ...any) (*entity.CostRecord, error) {
	rec, err := scanCost(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cost record: %w", err)
	}
	if rec.Payments, err = r.payments(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *CostRecordRepo) payments(ctx context.Context, recordID string) ([]entity.Payment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT amount, method, paid_at FROM cost_payments WHERE cost_record_id = $1 ORDER BY paid_at, id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list cost payments: %w", err)
	}
	defer rows.Close()

	var out []entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.Amount, &p.Method, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan cost payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanCost(row pgx.Row) (*entity.CostRecord, error) {
	var rec entity.CostRecord
	var categoryID, sourceItemID, sourceMovementID *string
	err := row.Scan(
		&rec.ID, &rec.VenueID, &rec.Description, &rec.Amount, &rec.PaidAmount, &rec.RemainingAmount,
		&rec.DueDate, &rec.Status, &categoryID, &sourceItemID, &sourceMovementID,
		&rec.PaymentMethod, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CategoryID = fromNull(categoryID)
	rec.SourceItemID = fromNull(sourceItemID)
	rec.SourceMovementID = fromNull(sourceMovementID)
	return &rec, nil
}
