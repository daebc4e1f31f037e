package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de inventario.
type MovementKind string

const (
	MovementIn         MovementKind = "in"         // entrada (+cantidad)
	MovementOut        MovementKind = "out"        // salida (−cantidad)
	MovementAdjustment MovementKind = "adjustment" // ajuste absoluto (stock := cantidad)
)

// Valid indica si el tipo es uno de los soportados.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// ReasonKind etiqueta del motivo de un movimiento.
type ReasonKind string

const (
	ReasonCustom        ReasonKind = "custom"
	ReasonInitialStock  ReasonKind = "initial_stock"
	ReasonReplenishment ReasonKind = "replenishment"
)

// Textos canónicos de las etiquetas automáticas.
const (
	InitialStockText  = "Initial stock"
	ReplenishmentText = "Replenishment"
)

// Reason motivo de un movimiento. Solo InitialStock y Replenishment se reetiquetan
// automáticamente; el texto Custom del usuario nunca se toca.
type Reason struct {
	Kind ReasonKind
	Text string
}

// InitialStockReason motivo canónico de la primera entrada.
func InitialStockReason() Reason {
	return Reason{Kind: ReasonInitialStock, Text: InitialStockText}
}

// ReplenishmentReason motivo canónico de las entradas posteriores.
func ReplenishmentReason() Reason {
	return Reason{Kind: ReasonReplenishment, Text: ReplenishmentText}
}

// ParseReason interpreta texto libre: los textos canónicos se etiquetan, el resto queda Custom.
func ParseReason(text string) Reason {
	t := strings.TrimSpace(text)
	switch {
	case strings.EqualFold(t, InitialStockText):
		return InitialStockReason()
	case strings.EqualFold(t, ReplenishmentText):
		return ReplenishmentReason()
	}
	return Reason{Kind: ReasonCustom, Text: t}
}

// IsCanonical indica si el motivo puede reetiquetarse.
func (r Reason) IsCanonical() bool {
	return r.Kind == ReasonInitialStock || r.Kind == ReasonReplenishment
}

// IsEmpty indica si no hay motivo.
func (r Reason) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

func (r Reason) String() string { return r.Text }

// StockMovement movimiento de stock de un ítem. El orden lógico es (Timestamp, Seq),
// nunca el orden de almacenamiento.
type StockMovement struct {
	ID          string
	ItemID      string
	Seq         int64 // orden de inserción, desempate para timestamps iguales
	Kind        MovementKind
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal // nil = sin precio
	TotalCost   *decimal.Decimal // derivado, 2 decimales
	ManualPrice bool             // precio provisto por el usuario, no se recalcula
	Reason      Reason
	Reference   string // entidad externa (p. ej. "order:123"); vacío si ninguna
	Timestamp   time.Time
	CreatedAt   time.Time
	CreatedBy   string
}

// HasPrice indica si el movimiento tiene precio unitario.
func (m StockMovement) HasPrice() bool {
	return m.UnitPrice != nil
}

// IsLinked indica si el movimiento pertenece a una entidad externa y es inmutable aquí.
func (m StockMovement) IsLinked() bool {
	return m.Reference != ""
}

// Before compara por (Timestamp, Seq).
func (m StockMovement) Before(o StockMovement) bool {
	if !m.Timestamp.Equal(o.Timestamp) {
		return m.Timestamp.Before(o.Timestamp)
	}
	return m.Seq < o.Seq
}

// Clone copia profunda (los punteros de precio/costo no se comparten).
func (m StockMovement) Clone() StockMovement {
	c := m
	if m.UnitPrice != nil {
		p := *m.UnitPrice
		c.UnitPrice = &p
	}
	if m.TotalCost != nil {
		t := *m.TotalCost
		c.TotalCost = &t
	}
	return c
}

// MovementPatch cambios permitidos sobre un movimiento existente. Campos nil no cambian.
type MovementPatch struct {
	Quantity   *decimal.Decimal
	UnitPrice  *decimal.Decimal
	ClearPrice bool // vuelve el precio a derivado
	Reason     *string
	Timestamp  *time.Time
}
