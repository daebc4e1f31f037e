package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/application/expense"
	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
	"github.com/jhoicas/Cafeteria-api/internal/infrastructure/lock"
	apphttp "github.com/jhoicas/Cafeteria-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Persistencia en memoria (sin rollback: los casos de uso no escriben antes de validar)
// ──────────────────────────────────────────────────────────────────────────────

type store struct {
	mu        sync.Mutex
	items     map[string]entity.InventoryItem
	movements map[string]entity.StockMovement
	costs     map[string]entity.CostRecord
}

func newStore() *store {
	return &store{
		items:     map[string]entity.InventoryItem{},
		movements: map[string]entity.StockMovement{},
		costs:     map[string]entity.CostRecord{},
	}
}

func (s *store) Run(ctx context.Context, fn func(repository.InventoryItemRepository, repository.StockMovementRepository, repository.CostRecordRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(itemRepo{s}, movRepo{s}, costRepo{s})
}

func (s *store) RunCosts(ctx context.Context, fn func(repository.CostRecordRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(costRepo{s})
}

type itemRepo struct{ s *store }

func (r itemRepo) Create(_ context.Context, it *entity.InventoryItem) error {
	r.s.items[it.ID] = *it
	return nil
}
func (r itemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}
func (r itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.GetByID(ctx, id)
}
func (r itemRepo) GetByNameKey(_ context.Context, venueID, key string) (*entity.InventoryItem, error) {
	for _, it := range r.s.items {
		if it.VenueID == venueID && it.NameKey == key && it.Active {
			cp := it
			return &cp, nil
		}
	}
	return nil, nil
}
func (r itemRepo) ListByVenue(_ context.Context, venueID string, f repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range r.s.items {
		if it.VenueID == venueID && it.Active && (f.Category == "" || it.Category == f.Category) {
			cp := it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameKey < out[j].NameKey })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
func (r itemRepo) ListBelowMinimum(ctx context.Context, venueID string) ([]*entity.InventoryItem, error) {
	all, _ := r.ListByVenue(ctx, venueID, repository.ItemFilter{})
	var out []*entity.InventoryItem
	for _, it := range all {
		if it.BelowMinimum() {
			out = append(out, it)
		}
	}
	return out, nil
}
func (r itemRepo) UpdateDerived(_ context.Context, it *entity.InventoryItem) error {
	cur := r.s.items[it.ID]
	cur.CurrentStock, cur.UnitPrice = it.CurrentStock, it.UnitPrice
	r.s.items[it.ID] = cur
	return nil
}
func (r itemRepo) Deactivate(_ context.Context, id string) error {
	cur := r.s.items[id]
	cur.Active = false
	r.s.items[id] = cur
	return nil
}

type movRepo struct{ s *store }

func (r movRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.movements[m.ID] = m.Clone()
	return nil
}
func (r movRepo) Update(_ context.Context, m *entity.StockMovement) error {
	r.s.movements[m.ID] = m.Clone()
	return nil
}
func (r movRepo) Delete(_ context.Context, id string) error {
	delete(r.s.movements, id)
	return nil
}
func (r movRepo) ListByItem(_ context.Context, itemID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.s.movements {
		if m.ItemID == itemID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

type costRepo struct{ s *store }

func (r costRepo) Create(_ context.Context, rec *entity.CostRecord) error {
	r.s.costs[rec.ID] = *rec
	return nil
}
func (r costRepo) GetByID(_ context.Context, id string) (*entity.CostRecord, error) {
	rec, ok := r.s.costs[id]
	if !ok {
		return nil, nil
	}
	rec.Payments = append([]entity.Payment(nil), rec.Payments...)
	return &rec, nil
}
func (r costRepo) GetForUpdate(ctx context.Context, id string) (*entity.CostRecord, error) {
	return r.GetByID(ctx, id)
}
func (r costRepo) GetBySourceMovement(_ context.Context, movementID string) (*entity.CostRecord, error) {
	for _, rec := range r.s.costs {
		if rec.SourceMovementID == movementID {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}
func (r costRepo) Update(_ context.Context, rec *entity.CostRecord) error {
	r.s.costs[rec.ID] = *rec
	return nil
}
func (r costRepo) AddPayment(context.Context, string, entity.Payment) error { return nil }
func (r costRepo) ListOverdueCandidates(context.Context, time.Time, int) ([]*entity.CostRecord, error) {
	return nil, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// App de prueba
// ──────────────────────────────────────────────────────────────────────────────

func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	s := newStore()
	ledger := inventory.NewLedgerUseCase(s, lock.NewMemoryLocker(), nil)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ItemUC:          inventory.NewItemUseCase(itemRepo{s}, movRepo{s}, nil),
		LedgerUC:        ledger,
		RecipeUC:        inventory.NewRecipeUseCase(ledger),
		ReplenishmentUC: inventory.NewReplenishmentUseCase(itemRepo{s}),
		CostRecordUC:    expense.NewCostRecordUseCase(s, nil),
		JWTSecret:       testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, role, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

func createItem(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := call(t, app, "manager", http.MethodPost, "/api/inventory/items", map[string]any{
		"name": "Leche entera", "unit": "l", "min_stock": "5",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &item))
	return item.ID
}

func postMovement(t *testing.T, app *fiber.App, itemID string, body map[string]any) (int, []byte) {
	t.Helper()
	return call(t, app, "barista", http.MethodPost, "/api/inventory/items/"+itemID+"/movements", body)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryAPI_EndToEndLedger(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app)

	status, body := postMovement(t, app, itemID, map[string]any{
		"kind": "in", "quantity": "10", "reason": "Initial stock", "unit_price": "5", "timestamp": "2025-03-01T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	status, body = postMovement(t, app, itemID, map[string]any{
		"kind": "in", "quantity": "10", "reason": "Replenishment", "unit_price": "8", "timestamp": "2025-03-01T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	status, body = postMovement(t, app, itemID, map[string]any{
		"kind": "out", "quantity": "12", "reason": "Ventas del día", "timestamp": "2025-03-01T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var res dto.MovementResultResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.Movement.TotalCost)
	assert.Equal(t, "66", res.Movement.TotalCost.String())
	assert.Equal(t, "5.5", res.Movement.UnitPrice.String())
	assert.Equal(t, "8", res.Item.CurrentStock.String())
	assert.Nil(t, res.Movement.Reference)

	// Vender más de lo que hay
	status, body = postMovement(t, app, itemID, map[string]any{
		"kind": "out", "quantity": "9", "reason": "Ventas", "timestamp": "2025-03-01T11:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NEGATIVE_BALANCE", errorCode(t, body))

	// Cotización FIFO
	status, body = call(t, app, "barista", http.MethodGet,
		"/api/inventory/items/"+itemID+"/price-quote?quantity=8&at=2025-03-02T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var quote dto.PriceQuoteResponse
	require.NoError(t, json.Unmarshal(body, &quote))
	assert.Equal(t, "64", quote.TotalCost.String())

	status, body = call(t, app, "barista", http.MethodGet,
		"/api/inventory/items/"+itemID+"/price-quote?quantity=9&at=2025-03-02T00:00:00Z", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_BATCH_HISTORY", errorCode(t, body))

	// Ledger y valoración
	status, body = call(t, app, "barista", http.MethodGet, "/api/inventory/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, status)
	var detail dto.ItemDetailResponse
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Len(t, detail.Movements, 3)
	assert.Equal(t, "64", detail.Valuation.FIFOValue.String())
}

func TestInventoryAPI_Validation(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app)

	status, body := postMovement(t, app, itemID, map[string]any{"kind": "transfer", "quantity": "1", "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	status, body = postMovement(t, app, itemID, map[string]any{"kind": "in", "quantity": "0", "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	status, _ = call(t, app, "manager", http.MethodPost, "/api/inventory/items", map[string]any{"name": "Leche Entera", "unit": "ml"})
	assert.Equal(t, http.StatusConflict, status, "nombre duplicado")

	status, _ = call(t, app, "barista", http.MethodPost, "/api/inventory/items", map[string]any{"name": "Azúcar", "unit": "kg"})
	assert.Equal(t, http.StatusForbidden, status, "barista no crea ítems")

	status, _ = call(t, app, "barista", http.MethodGet, "/api/inventory/items/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInventoryAPI_ListItems(t *testing.T) {
	app := newAPI(t)
	createItem(t, app)
	status, body := call(t, app, "manager", http.MethodPost, "/api/inventory/items", map[string]any{"name": "Azúcar", "unit": "kg", "category": "secos"})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, app, "barista", http.MethodGet, "/api/inventory/items?limit=1", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var page dto.ItemListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Azúcar", page.Items[0].Name)
	assert.True(t, page.HasMore)

	status, body = call(t, app, "barista", http.MethodGet, "/api/inventory/items?category=secos", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	page = dto.ItemListResponse{}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, 20, page.Limit)

	status, body = call(t, app, "barista", http.MethodGet, "/api/inventory/items?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

func TestInventoryAPI_PurchaseAndPayments(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app)

	status, body := call(t, app, "manager", http.MethodPost, "/api/inventory/items/"+itemID+"/movements", map[string]any{
		"kind": "in", "quantity": "10", "reason": "Compra", "unit_price": "5",
		"purchase": map[string]any{"paid_amount": "0", "payment_method": "transfer"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var res dto.MovementResultResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.CostRecord)
	assert.Equal(t, "pending", res.CostRecord.Status)
	recID := res.CostRecord.ID

	status, body = call(t, app, "manager", http.MethodPost, "/api/cost-records/"+recID+"/payments",
		map[string]any{"amount": "60", "method": "cash"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PAYMENT_REJECTED", errorCode(t, body))

	status, body = call(t, app, "manager", http.MethodPost, "/api/cost-records/"+recID+"/payments",
		map[string]any{"amount": "20", "method": "cash"})
	require.Equal(t, http.StatusOK, status, string(body))
	var rec dto.CostRecordResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "partially_paid", rec.Status)
	assert.Equal(t, "30", rec.RemainingAmount.String())

	status, _ = call(t, app, "barista", http.MethodGet, "/api/cost-records/"+recID, nil)
	assert.Equal(t, http.StatusForbidden, status, "barista no ve costos")
}

func TestInventoryAPI_LowStock(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app)
	status, _ := postMovement(t, app, itemID, map[string]any{"kind": "in", "quantity": "2", "reason": "Initial stock", "unit_price": "1.5"})
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, app, "barista", http.MethodGet, "/api/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	var out struct {
		Total int               `json:"total"`
		Items []dto.LowStockDTO `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 1, out.Total)
	assert.Equal(t, itemID, out.Items[0].ItemID)
	assert.Equal(t, "5.5", out.Items[0].SuggestedQty.String(), "objetivo 7.5 (mínimo * 1.5) - 2")
}
