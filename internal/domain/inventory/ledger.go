package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Ledger movimientos de un ítem en orden de inserción. Cada mutación trabaja sobre una
// copia, reproduce el ledger completo y solo se confirma si la reproducción es válida;
// un error deja el Ledger exactamente como estaba.
//
// Ledger no es seguro para uso concurrente: el llamador debe serializar mutaciones por ítem.
type Ledger struct {
	item      entity.InventoryItem
	movements []entity.StockMovement
}

// Mutation resultado de una mutación aceptada.
type Mutation struct {
	Item     entity.InventoryItem
	Movement entity.StockMovement   // movimiento agregado o editado (vacío en Remove)
	Changed  []entity.StockMovement // otros movimientos cuyos campos derivados cambiaron
	Removed  string                 // ID eliminado (solo Remove)
}

// NewLedger construye el ledger de un ítem con sus movimientos persistidos.
func NewLedger(item entity.InventoryItem, movements []entity.StockMovement) *Ledger {
	arena := make([]entity.StockMovement, len(movements))
	for i, m := range movements {
		arena[i] = m.Clone()
	}
	return &Ledger{item: item, movements: arena}
}

// Item ítem con los campos derivados vigentes.
func (l *Ledger) Item() entity.InventoryItem { return l.item }

// Movements copia cronológica de los movimientos.
func (l *Ledger) Movements() []entity.StockMovement {
	return Chronological(l.movements)
}

// Find devuelve el movimiento con ese ID.
func (l *Ledger) Find(id string) (entity.StockMovement, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.movements[i].Clone(), true
	}
	return entity.StockMovement{}, false
}

// NextSeq siguiente número de inserción.
func (l *Ledger) NextSeq() int64 {
	var last int64
	for _, m := range l.movements {
		if m.Seq > last {
			last = m.Seq
		}
	}
	return last + 1
}

// Append agrega un movimiento. Una entrada sin precio suma stock pero no abre lote.
func (l *Ledger) Append(m entity.StockMovement) (*Mutation, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.ItemID == "" {
		m.ItemID = l.item.ID
	}
	if m.Seq == 0 {
		m.Seq = l.NextSeq()
	}
	if m.UnitPrice != nil {
		m.ManualPrice = true
	}
	if err := ValidateMovement(m); err != nil {
		return nil, err
	}

	next := append(cloneAll(l.movements), m.Clone())
	return l.commit(next, m.ID, "")
}

// Update edita cantidad, precio, motivo o fecha de un movimiento.
func (l *Ledger) Update(id string, patch entity.MovementPatch) (*Mutation, error) {
	i := l.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m := l.movements[i].Clone()
	if m.IsLinked() {
		return nil, &domain.ImmutableMovementError{MovementID: m.ID, Reference: m.Reference}
	}

	if patch.Quantity != nil {
		m.Quantity = *patch.Quantity
	}
	if patch.ClearPrice {
		m.UnitPrice = nil
		m.ManualPrice = false
	}
	if patch.UnitPrice != nil {
		p := *patch.UnitPrice
		m.UnitPrice = &p
		m.ManualPrice = true
	}
	if patch.Reason != nil {
		m.Reason = entity.ParseReason(*patch.Reason)
	}
	if patch.Timestamp != nil {
		m.Timestamp = *patch.Timestamp
	}
	if err := ValidateMovement(m); err != nil {
		return nil, err
	}

	next := cloneAll(l.movements)
	next[i] = m
	return l.commit(next, m.ID, "")
}

// Remove elimina un movimiento y recalcula todo lo que dependía de él.
func (l *Ledger) Remove(id string) (*Mutation, error) {
	i := l.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if l.movements[i].IsLinked() {
		return nil, &domain.ImmutableMovementError{MovementID: id, Reference: l.movements[i].Reference}
	}

	next := make([]entity.StockMovement, 0, len(l.movements)-1)
	for j, m := range l.movements {
		if j != i {
			next = append(next, m.Clone())
		}
	}
	return l.commit(next, "", id)
}

// PriceOutbound costea qty contra los lotes formados por los movimientos anteriores a at.
// Si los lotes no alcanzan devuelve InsufficientBatchHistoryError con el costo parcial.
func (l *Ledger) PriceOutbound(qty decimal.Decimal, at time.Time) (Allocation, error) {
	if !qty.IsPositive() {
		return Allocation{}, domain.NewValidationError("quantity", "must be greater than zero")
	}
	ordered := Chronological(l.movements)
	cut := 0
	for cut < len(ordered) && ordered[cut].Timestamp.Before(at) {
		cut++
	}
	alloc := Allocate(BuildBatches(ordered[:cut]), qty)
	if !alloc.Sufficient() {
		return alloc, &domain.InsufficientBatchHistoryError{
			Requested:   alloc.Requested,
			Covered:     alloc.Covered,
			PartialCost: alloc.TotalCost,
		}
	}
	return alloc, nil
}

// Valuation valor FIFO del stock en mano.
func (l *Ledger) Valuation() Valuation {
	return Value(BuildBatches(Chronological(l.movements)))
}

// commit reproduce next y, si es válido, lo confirma como nuevo estado.
func (l *Ledger) commit(next []entity.StockMovement, targetID, removedID string) (*Mutation, error) {
	snap, err := Replay(next)
	if err != nil {
		return nil, err
	}

	before := make(map[string]entity.StockMovement, len(l.movements))
	for _, m := range l.movements {
		before[m.ID] = m
	}

	mut := &Mutation{Item: SyncItem(l.item, snap), Removed: removedID}
	for _, m := range snap.Movements {
		if m.ID == targetID {
			mut.Movement = m.Clone()
			continue
		}
		if old, ok := before[m.ID]; ok && derivedChanged(old, m) {
			mut.Changed = append(mut.Changed, m.Clone())
		}
	}

	// El arena conserva el orden de inserción; se actualizan los campos derivados.
	byID := make(map[string]entity.StockMovement, len(snap.Movements))
	for _, m := range snap.Movements {
		byID[m.ID] = m
	}
	for i := range next {
		next[i] = byID[next[i].ID].Clone()
	}
	l.movements = next
	l.item = mut.Item
	return mut, nil
}

func (l *Ledger) indexOf(id string) int {
	for i, m := range l.movements {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// ValidateMovement reglas de entrada de un movimiento aislado.
func ValidateMovement(m entity.StockMovement) error {
	if !m.Kind.Valid() {
		return domain.NewValidationError("kind", "must be in, out or adjustment")
	}
	if m.Kind == entity.MovementAdjustment {
		if m.Quantity.IsNegative() {
			return domain.NewValidationError("quantity", "must not be negative")
		}
	} else if !m.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "must be greater than zero")
	}
	if m.Reason.IsEmpty() {
		return domain.NewValidationError("reason", "is required")
	}
	if m.UnitPrice != nil && m.UnitPrice.IsNegative() {
		return domain.NewValidationError("unit_price", "must not be negative")
	}
	if m.Timestamp.IsZero() {
		return domain.NewValidationError("timestamp", "is required")
	}
	return nil
}

func derivedChanged(a, b entity.StockMovement) bool {
	return !decEqual(a.UnitPrice, b.UnitPrice) ||
		!decEqual(a.TotalCost, b.TotalCost) ||
		a.Reason != b.Reason
}

func decEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneAll(ms []entity.StockMovement) []entity.StockMovement {
	out := make([]entity.StockMovement, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}
