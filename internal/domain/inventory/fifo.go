package inventory

import (
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Batch porción aún no consumida de una entrada con precio. Efímero: se reconstruye
// en cada reproducción del ledger.
type Batch struct {
	MovementID       string
	OriginalQuantity decimal.Decimal
	UnitPrice        decimal.Decimal
	Remaining        decimal.Decimal
}

// Batches lotes abiertos, del más antiguo al más reciente.
type Batches []Batch

// TotalRemaining suma de lo que queda en todos los lotes.
func (b Batches) TotalRemaining() decimal.Decimal {
	total := decimal.Zero
	for _, batch := range b {
		total = total.Add(batch.Remaining)
	}
	return total
}

// consume descuenta qty de los lotes más antiguos primero, sin dejar ninguno negativo.
func (b Batches) consume(qty decimal.Decimal) {
	need := qty
	for i := range b {
		if !need.IsPositive() {
			return
		}
		take := decimal.Min(b[i].Remaining, need)
		b[i].Remaining = b[i].Remaining.Sub(take)
		need = need.Sub(take)
	}
}

// rescale ajusta proporcionalmente cada lote para que el total sea target.
// Sin remanente no hay costo que escalar.
func (b Batches) rescale(target decimal.Decimal) {
	total := b.TotalRemaining()
	if !total.IsPositive() {
		return
	}
	for i := range b {
		b[i].Remaining = b[i].Remaining.Mul(target).Div(total)
	}
}

// BuildBatches recorre movimientos ya ordenados cronológicamente y devuelve los lotes
// abiertos al final del recorrido. El llamador decide el corte (movimientos previos a T).
//
//   - in con precio abre un lote; in sin precio no aporta costo.
//   - out descuenta de los lotes más antiguos.
//   - adjustment reescala los lotes para que sumen la cantidad ajustada.
func BuildBatches(ordered []entity.StockMovement) Batches {
	batches := make(Batches, 0, len(ordered))
	for _, m := range ordered {
		switch m.Kind {
		case entity.MovementIn:
			if m.UnitPrice == nil {
				continue
			}
			batches = append(batches, Batch{
				MovementID:       m.ID,
				OriginalQuantity: m.Quantity,
				UnitPrice:        *m.UnitPrice,
				Remaining:        m.Quantity,
			})
		case entity.MovementOut:
			batches.consume(m.Quantity.Abs())
		case entity.MovementAdjustment:
			batches.rescale(m.Quantity.Abs())
		}
	}
	return batches
}

// Allocation resultado de costear una cantidad contra lotes FIFO.
type Allocation struct {
	Requested decimal.Decimal
	Covered   decimal.Decimal
	TotalCost decimal.Decimal  // redondeado a 2 decimales
	UnitPrice *decimal.Decimal // nil si no hay costo derivable
}

// Shortfall cantidad que ningún lote pudo cubrir.
func (a Allocation) Shortfall() decimal.Decimal {
	return a.Requested.Sub(a.Covered)
}

// Sufficient indica si los lotes cubrieron toda la cantidad pedida.
func (a Allocation) Sufficient() bool {
	return !a.Shortfall().IsPositive()
}

// Allocate costea qty consumiendo los lotes del más antiguo al más reciente. No modifica
// batches. Si los lotes no alcanzan devuelve el costo parcial; el llamador decide si eso
// es aceptable.
func Allocate(batches Batches, qty decimal.Decimal) Allocation {
	qty = qty.Abs()
	cost := decimal.Zero
	covered := decimal.Zero
	need := qty
	for _, b := range batches {
		if !need.IsPositive() {
			break
		}
		if !b.Remaining.IsPositive() {
			continue
		}
		take := decimal.Min(b.Remaining, need)
		cost = cost.Add(take.Mul(b.UnitPrice))
		covered = covered.Add(take)
		need = need.Sub(take)
	}

	alloc := Allocation{
		Requested: qty,
		Covered:   covered,
		TotalCost: RoundMoney(cost),
	}
	if qty.IsPositive() && alloc.TotalCost.IsPositive() {
		unit := RoundMoney(alloc.TotalCost.Div(qty))
		alloc.UnitPrice = &unit
	}
	return alloc
}

// RoundMoney redondea a 2 decimales.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
