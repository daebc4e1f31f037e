package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento con sus campos derivados.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, item_id, seq, kind, quantity, unit_price, total_cost, manual_price,
			reason_kind, reason_text, reference, ts, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ItemID, m.Seq, m.Kind, m.Quantity, m.UnitPrice, m.TotalCost, m.ManualPrice,
		m.Reason.Kind, m.Reason.Text, nullIfEmpty(m.Reference), m.Timestamp, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// Update reescribe los campos editables y derivados de un movimiento.
func (r *StockMovementRepo) Update(ctx context.Context, m *entity.StockMovement) error {
	query := `
		UPDATE stock_movements
		SET quantity = $2, unit_price = $3, total_cost = $4, manual_price = $5,
			reason_kind = $6, reason_text = $7, ts = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.Quantity, m.UnitPrice, m.TotalCost, m.ManualPrice, m.Reason.Kind, m.Reason.Text, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("update stock movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un movimiento.
func (r *StockMovementRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByItem devuelve todos los movimientos del ítem.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string) ([]entity.StockMovement, error) {
	query := `
		SELECT id, item_id, seq, kind, quantity, unit_price, total_cost, manual_price,
			reason_kind, reason_text, reference, ts, created_at, created_by
		FROM stock_movements WHERE item_id = $1 ORDER BY ts, seq`
	rows, err := r.q.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var reference, createdBy *string
		if err := rows.Scan(
			&m.ID, &m.ItemID, &m.Seq, &m.Kind, &m.Quantity, &m.UnitPrice, &m.TotalCost, &m.ManualPrice,
			&m.Reason.Kind, &m.Reason.Text, &reference, &m.Timestamp, &m.CreatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Reference = fromNull(reference)
		m.CreatedBy = fromNull(createdBy)
		out = append(out, m)
	}
	return out, rows.Err()
}
