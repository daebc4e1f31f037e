package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLine ingrediente de una receta, en la unidad indicada.
type RecipeLine struct {
	IngredientID string
	Quantity     decimal.Decimal
	Unit         string
}

// InventoryItem ítem de inventario de un local. CurrentStock y UnitPrice se derivan
// de los movimientos; no se editan directamente.
type InventoryItem struct {
	ID            string
	VenueID       string
	Name          string
	NameKey       string // nombre normalizado, único por local
	Category      string
	Unit          string
	CurrentStock  decimal.Decimal
	MinStock      decimal.Decimal
	MaxStock      decimal.Decimal
	UnitPrice     decimal.Decimal
	IsRawMaterial bool
	Recipe        []RecipeLine
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BelowMinimum indica si el stock actual está bajo el umbral mínimo.
func (i InventoryItem) BelowMinimum() bool {
	return i.MinStock.GreaterThan(decimal.Zero) && i.CurrentStock.LessThan(i.MinStock)
}
