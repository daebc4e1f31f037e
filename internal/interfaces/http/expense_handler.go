package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/application/expense"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// ExpenseHandler maneja los registros de costo y sus pagos (protegido).
type ExpenseHandler struct {
	uc  *expense.CostRecordUseCase
	log *logger.Logger
}

// NewExpenseHandler construye el handler.
func NewExpenseHandler(uc *expense.CostRecordUseCase, log *logger.Logger) *ExpenseHandler {
	return &ExpenseHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear registro de costo
// @Tags         cost-records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCostRecordRequest  true  "Gasto"
// @Success      201   {object}  dto.CostRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/cost-records [post]
func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCostRecordRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.uc.Create(c.UserContext(), venueID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener registro de costo
// @Tags         cost-records
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.CostRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cost-records/{id} [get]
func (h *ExpenseHandler) Get(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.UserContext(), venueID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar registro de costo
// @Description  Asignación directa: un monto pagado mayor al total se recorta.
// @Tags         cost-records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del registro"
// @Param        body  body  dto.UpdateCostRecordRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.CostRecordResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cost-records/{id} [patch]
func (h *ExpenseHandler) Update(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateCostRecordRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.uc.Update(c.UserContext(), venueID, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// AddPayment godoc
// @Summary      Registrar abono
// @Description  Rechaza abonos no positivos, mayores al saldo o sobre registros cancelados.
// @Tags         cost-records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del registro"
// @Param        body  body  dto.AddPaymentRequest  true  "Monto y método"
// @Success      200   {object}  dto.CostRecordResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/cost-records/{id}/payments [post]
func (h *ExpenseHandler) AddPayment(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	var in dto.AddPaymentRequest
	if e := parseBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.uc.AddPayment(c.UserContext(), venueID, c.Params("id"), in.Amount, in.Method)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar registro de costo
// @Tags         cost-records
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.CostRecordResponse
// @Router       /api/cost-records/{id}/cancel [post]
func (h *ExpenseHandler) Cancel(c *fiber.Ctx) error {
	venueID := GetVenueID(c)
	if venueID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Cancel(c.UserContext(), venueID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
