package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cafeteria-api/internal/application/expense"
	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC          *inventory.ItemUseCase
	LedgerUC        *inventory.LedgerUseCase
	RecipeUC        *inventory.RecipeUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	CostRecordUC    *expense.CostRecordUseCase
	JWTSecret       string
	Logger          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	managers := RequireRole(RoleAdmin, RoleManager)
	anyStaff := RequireRole(RoleAdmin, RoleManager, RoleBarista)

	// Inventario
	inv := protected.Group("/inventory")
	invHandler := NewInventoryHandler(deps.ItemUC, deps.LedgerUC, deps.RecipeUC, deps.ReplenishmentUC, log)
	inv.Get("/low-stock", anyStaff, invHandler.LowStock)
	inv.Post("/items", managers, invHandler.CreateItem)
	inv.Get("/items", anyStaff, invHandler.ListItems)
	inv.Get("/items/:id", anyStaff, invHandler.GetItem)
	inv.Delete("/items/:id", managers, invHandler.DeactivateItem)
	inv.Post("/items/:id/movements", anyStaff, invHandler.RecordMovement)
	inv.Patch("/items/:id/movements/:movementId", managers, invHandler.EditMovement)
	inv.Delete("/items/:id/movements/:movementId", managers, invHandler.DeleteMovement)
	inv.Get("/items/:id/price-quote", anyStaff, invHandler.PriceQuote)
	inv.Post("/items/:id/consume", anyStaff, invHandler.ConsumeRecipe)

	// Registros de costo
	costs := protected.Group("/cost-records", managers)
	costHandler := NewExpenseHandler(deps.CostRecordUC, log)
	costs.Post("/", costHandler.Create)
	costs.Get("/:id", costHandler.Get)
	costs.Patch("/:id", costHandler.Update)
	costs.Post("/:id/payments", costHandler.AddPayment)
	costs.Post("/:id/cancel", costHandler.Cancel)
}
