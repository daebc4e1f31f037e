package inventory_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional (snapshot + restore)
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	items     map[string]entity.InventoryItem
	movements map[string]entity.StockMovement
	costs     map[string]entity.CostRecord
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{
		items:     map[string]entity.InventoryItem{},
		movements: map[string]entity.StockMovement{},
		costs:     map[string]entity.CostRecord{},
	}
}

func (s *memStore) snapshot() (map[string]entity.InventoryItem, map[string]entity.StockMovement, map[string]entity.CostRecord) {
	items := make(map[string]entity.InventoryItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	movs := make(map[string]entity.StockMovement, len(s.movements))
	for k, v := range s.movements {
		movs[k] = v.Clone()
	}
	costs := make(map[string]entity.CostRecord, len(s.costs))
	for k, v := range s.costs {
		costs[k] = cloneCost(v)
	}
	return items, movs, costs
}

func cloneCost(r entity.CostRecord) entity.CostRecord {
	r.Payments = append([]entity.Payment(nil), r.Payments...)
	return r
}

func (s *memStore) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
	costRepo repository.CostRecordRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	items, movs, costs := s.snapshot()
	if err := fn(memItems{s}, memMovements{s}, memCosts{s}); err != nil {
		s.items, s.movements, s.costs = items, movs, costs
		return err
	}
	return nil
}

func (s *memStore) putItem(item entity.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *memStore) item(id string) entity.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *memStore) movementCount(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.movements {
		if m.ItemID == itemID {
			n++
		}
	}
	return n
}

func (s *memStore) cost(id string) entity.CostRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCost(s.costs[id])
}

// Los repos solo se usan dentro de Run (el mutex ya está tomado) o desde los
// casos de uso que leen fuera de transacción, donde no hay concurrencia en los tests.

type memItems struct{ s *memStore }

func (r memItems) Create(_ context.Context, item *entity.InventoryItem) error {
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r memItems) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.GetByID(ctx, id)
}

func (r memItems) GetByNameKey(_ context.Context, venueID, nameKey string) (*entity.InventoryItem, error) {
	for _, it := range r.s.items {
		if it.VenueID == venueID && it.NameKey == nameKey {
			cp := it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memItems) ListByVenue(_ context.Context, venueID string, f repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range r.s.items {
		if it.VenueID != venueID || !it.Active {
			continue
		}
		if (f.Category != "" && it.Category != f.Category) || (f.RawOnly && !it.IsRawMaterial) {
			continue
		}
		cp := it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameKey < out[j].NameKey })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memItems) ListBelowMinimum(_ context.Context, venueID string) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range r.s.items {
		if it.VenueID == venueID && it.Active && it.BelowMinimum() {
			cp := it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memItems) UpdateDerived(_ context.Context, item *entity.InventoryItem) error {
	cur := r.s.items[item.ID]
	cur.CurrentStock = item.CurrentStock
	cur.UnitPrice = item.UnitPrice
	cur.UpdatedAt = time.Now()
	r.s.items[item.ID] = cur
	return nil
}

func (r memItems) Deactivate(_ context.Context, id string) error {
	cur := r.s.items[id]
	cur.Active = false
	r.s.items[id] = cur
	return nil
}

type memMovements struct{ s *memStore }

func (r memMovements) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.movements[m.ID] = m.Clone()
	return nil
}

func (r memMovements) Update(_ context.Context, m *entity.StockMovement) error {
	r.s.movements[m.ID] = m.Clone()
	return nil
}

func (r memMovements) Delete(_ context.Context, id string) error {
	delete(r.s.movements, id)
	return nil
}

func (r memMovements) ListByItem(_ context.Context, itemID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.s.movements {
		if m.ItemID == itemID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

type memCosts struct{ s *memStore }

func (r memCosts) Create(_ context.Context, rec *entity.CostRecord) error {
	r.s.costs[rec.ID] = cloneCost(*rec)
	return nil
}

func (r memCosts) GetByID(_ context.Context, id string) (*entity.CostRecord, error) {
	rec, ok := r.s.costs[id]
	if !ok {
		return nil, nil
	}
	cp := cloneCost(rec)
	return &cp, nil
}

func (r memCosts) GetForUpdate(ctx context.Context, id string) (*entity.CostRecord, error) {
	return r.GetByID(ctx, id)
}

func (r memCosts) GetBySourceMovement(_ context.Context, movementID string) (*entity.CostRecord, error) {
	for _, rec := range r.s.costs {
		if rec.SourceMovementID == movementID {
			cp := cloneCost(rec)
			return &cp, nil
		}
	}
	return nil, nil
}

// Update no toca los abonos: como en PostgreSQL, solo AddPayment los persiste.
func (r memCosts) Update(_ context.Context, rec *entity.CostRecord) error {
	cp := cloneCost(*rec)
	cp.Payments = r.s.costs[rec.ID].Payments
	r.s.costs[rec.ID] = cp
	return nil
}

func (r memCosts) AddPayment(_ context.Context, recordID string, p entity.Payment) error {
	rec := r.s.costs[recordID]
	rec.Payments = append(rec.Payments, p)
	r.s.costs[recordID] = rec
	return nil
}

func (r memCosts) ListOverdueCandidates(_ context.Context, now time.Time, limit int) ([]*entity.CostRecord, error) {
	return nil, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Locker que registra el orden de adquisición
// ──────────────────────────────────────────────────────────────────────────────

type recordingLocker struct {
	mu       sync.Mutex
	acquired []string
	held     map[string]bool
}

func newRecordingLocker() *recordingLocker {
	return &recordingLocker{held: map[string]bool{}}
}

func (l *recordingLocker) Lock(_ context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired = append(l.acquired, itemID)
	l.held[itemID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, itemID)
	}, nil
}

func (l *recordingLocker) heldCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const venue = "venue-1"

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func at(h int) *time.Time {
	ts := t0.Add(time.Duration(h) * time.Hour)
	return &ts
}

func seedItem(s *memStore, id, name, unit string) {
	s.putItem(entity.InventoryItem{
		ID:       id,
		VenueID:  venue,
		Name:     name,
		NameKey:  name,
		Unit:     unit,
		MinStock: decimal.Zero,
		Active:   true,
	})
}
