package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, venue_id, name, name_key, category, unit, current_stock, min_stock, max_stock,
	unit_price, is_raw_material, recipe, active, created_at, updated_at`

// InventoryItemRepo implementación del puerto InventoryItemRepository sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// recipeLineRow forma JSONB de una línea de receta.
type recipeLineRow struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

func encodeRecipe(lines []entity.RecipeLine) ([]byte, error) {
	rows := make([]recipeLineRow, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, recipeLineRow{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit})
	}
	return json.Marshal(rows)
}

func decodeRecipe(raw []byte) ([]entity.RecipeLine, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []recipeLineRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	lines := make([]entity.RecipeLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, entity.RecipeLine{IngredientID: r.IngredientID, Quantity: r.Quantity, Unit: r.Unit})
	}
	return lines, nil
}

// Create persiste un nuevo ítem. El nombre normalizado es único entre los ítems activos del local.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	recipe, err := encodeRecipe(item.Recipe)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.q.Exec(ctx, query,
		item.ID, item.VenueID, item.Name, item.NameKey, item.Category, item.Unit,
		item.CurrentStock, item.MinStock, item.MaxStock, item.UnitPrice, item.IsRawMaterial,
		recipe, item.Active, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID; nil si no existe.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	return r.getOne(ctx, "get inventory item", query, id)
}

// GetForUpdate obtiene el ítem bloqueando su fila hasta el fin de la transacción.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "lock inventory item", query, id)
}

// GetByNameKey obtiene el ítem activo del local con ese nombre normalizado.
func (r *InventoryItemRepo) GetByNameKey(ctx context.Context, venueID, nameKey string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE venue_id = $1 AND name_key = $2 AND active`
	return r.getOne(ctx, "get inventory item by name", query, venueID, nameKey)
}

// ListByVenue lista los ítems activos del local ordenados por nombre.
func (r *InventoryItemRepo) ListByVenue(ctx context.Context, venueID string, f repository.ItemFilter) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE venue_id = $1 AND active
		  AND ($2::text = '' OR category = $2::text)
		  AND (NOT $3::bool OR is_raw_material)
		ORDER BY name_key LIMIT $4 OFFSET $5`
	return r.list(ctx, "list inventory items", query, venueID, f.Category, f.RawOnly, f.Limit, f.Offset)
}

// ListBelowMinimum ítems activos cuyo stock está bajo el mínimo configurado.
func (r *InventoryItemRepo) ListBelowMinimum(ctx context.Context, venueID string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE venue_id = $1 AND active AND min_stock > 0 AND current_stock < min_stock`
	return r.list(ctx, "list items below minimum", query, venueID)
}

// UpdateDerived persiste stock y precio visible recalculados por el ledger.
func (r *InventoryItemRepo) UpdateDerived(ctx context.Context, item *entity.InventoryItem) error {
	item.UpdatedAt = time.Now()
	query := `UPDATE inventory_items SET current_stock = $2, unit_price = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, item.ID, item.CurrentStock, item.UnitPrice, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update item derived fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate baja lógica; el ledger se conserva.
func (r *InventoryItemRepo) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE inventory_items SET active = false, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InventoryItemRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.InventoryItem, error) {
	item, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func (r *InventoryItemRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*entity.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	var recipe []byte
	err := row.Scan(
		&it.ID, &it.VenueID, &it.Name, &it.NameKey, &it.Category, &it.Unit,
		&it.CurrentStock, &it.MinStock, &it.MaxStock, &it.UnitPrice, &it.IsRawMaterial,
		&recipe, &it.Active, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if it.Recipe, err = decodeRecipe(recipe); err != nil {
		return nil, err
	}
	return &it, nil
}
