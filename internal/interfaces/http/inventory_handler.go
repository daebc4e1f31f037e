package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP de ítems, movimientos y consumo (protegido).
type InventoryHandler struct {
	items         *inventory.ItemUseCase
	ledger        *inventory.LedgerUseCase
	recipes       *inventory.RecipeUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	items *inventory.ItemUseCase,
	ledger *inventory.LedgerUseCase,
	recipes *inventory.RecipeUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{items: items, ledger: ledger, recipes: recipes, replenishment: replenishment, log: log}
}

// CreateItem godoc
// @Summary      Crear ítem de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.CreateItemRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.items.CreateItem(c.UserContext(), venueID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListItems godoc
// @Summary      Listar ítems activos del local
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit     query  int     false  "Máximo (1-100, por defecto 20)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Param        category  query  string  false  "Categoría exacta"
// @Param        raw_only  query  bool    false  "Solo materias primas"
// @Success      200  {object}  dto.ItemListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var q dto.ItemListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := validate.Struct(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	list, err := h.items.ListItems(c.UserContext(), venueID, q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// GetItem godoc
// @Summary      Ítem con su ledger y valoración FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	out, err := h.items.GetItem(c.UserContext(), venueID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// DeactivateItem godoc
// @Summary      Dar de baja un ítem
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [delete]
func (h *InventoryHandler) DeactivateItem(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	if err := h.items.DeactivateItem(c.UserContext(), venueID, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  in / out / adjustment. Las salidas sin precio se costean por FIFO. Con "purchase"
//
//	una entrada genera además un registro de costo.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del ítem"
// @Param        body  body  dto.RecordMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.RecordMovementRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	input := inventory.RecordMovementInput{
		VenueID:   venueID,
		UserID:    GetUserID(c),
		ItemID:    c.Params("id"),
		Kind:      entity.MovementKind(in.Kind),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Reference: in.Reference,
		UnitPrice: in.UnitPrice,
		Timestamp: in.Timestamp,
	}
	if p := in.Purchase; p != nil {
		input.Purchase = &inventory.PurchaseInput{
			Description:   p.Description,
			CategoryID:    p.CategoryID,
			DueDate:       p.DueDate,
			PaidAmount:    p.PaidAmount,
			PaymentMethod: p.PaymentMethod,
		}
	}
	res, err := h.ledger.RecordMovement(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movementResult(res))
}

// EditMovement godoc
// @Summary      Editar movimiento
// @Description  Recalcula el ledger completo. Movimientos con referencia externa son inmutables.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id          path  string                   true  "ID del ítem"
// @Param        movementId  path  string                   true  "ID del movimiento"
// @Param        body        body  dto.EditMovementRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.MovementResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements/{movementId} [patch]
func (h *InventoryHandler) EditMovement(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.EditMovementRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	res, err := h.ledger.EditMovement(c.UserContext(), inventory.EditMovementInput{
		VenueID:    venueID,
		ItemID:     c.Params("id"),
		MovementID: c.Params("movementId"),
		Patch: entity.MovementPatch{
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
			ClearPrice: in.ClearPrice,
			Reason:     in.Reason,
			Timestamp:  in.Timestamp,
		},
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(movementResult(res))
}

// DeleteMovement godoc
// @Summary      Eliminar movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id          path  string  true  "ID del ítem"
// @Param        movementId  path  string  true  "ID del movimiento"
// @Success      200   {object}  dto.ItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements/{movementId} [delete]
func (h *InventoryHandler) DeleteMovement(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	item, err := h.ledger.DeleteMovement(c.UserContext(), venueID, c.Params("id"), c.Params("movementId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewItemResponse(item))
}

// PriceQuote godoc
// @Summary      Costo FIFO de una salida hipotética
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "ID del ítem"
// @Param        quantity  query  string  true   "Cantidad"
// @Param        at        query  string  false  "Instante RFC3339 (por defecto ahora)"
// @Success      200  {object}  dto.PriceQuoteResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/price-quote [get]
func (h *InventoryHandler) PriceQuote(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		return respondError(c, h.log, domain.NewValidationError("quantity", "must be a decimal number"))
	}
	var at *time.Time
	if raw := c.Query("at"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return respondError(c, h.log, domain.NewValidationError("at", "must be RFC3339"))
		}
		at = &ts
	}
	alloc, err := h.ledger.PriceOutboundQuantity(c.UserContext(), venueID, c.Params("id"), qty, at)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PriceQuoteResponse{
		Quantity:  alloc.Requested,
		Covered:   alloc.Covered,
		TotalCost: alloc.TotalCost,
		UnitPrice: alloc.UnitPrice,
	})
}

// ConsumeRecipe godoc
// @Summary      Descontar ingredientes de un producto vendido
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto con receta"
// @Param        body  body  dto.ConsumeRecipeRequest  true  "Porciones y orden"
// @Success      201   {array}   dto.ConsumptionDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/consume [post]
func (h *InventoryHandler) ConsumeRecipe(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.ConsumeRecipeRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.recipes.ConsumeRecipe(c.UserContext(), venueID, GetUserID(c), c.Params("id"), in.Portions, in.OrderID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// LowStock godoc
// @Summary      Ítems bajo su mínimo
// @Description  Ordenados por déficit relativo, con la cantidad sugerida para volver al stock objetivo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	list, err := h.replenishment.LowStock(c.UserContext(), venueID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": list,
	})
}

func movementResult(res *inventory.MovementResult) dto.MovementResultResponse {
	out := dto.MovementResultResponse{
		Item:     dto.NewItemResponse(&res.Item),
		Movement: dto.NewMovementResponse(&res.Movement),
	}
	if res.CostRecord != nil {
		rec := dto.NewCostRecordResponse(res.CostRecord)
		out.CostRecord = &rec
	}
	return out
}
