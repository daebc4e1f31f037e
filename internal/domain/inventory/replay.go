package inventory

import (
	"sort"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Chronological devuelve una copia de los movimientos ordenada por (Timestamp, Seq).
// El orden de entrada no influye en el resultado.
func Chronological(movements []entity.StockMovement) []entity.StockMovement {
	ordered := make([]entity.StockMovement, len(movements))
	for i, m := range movements {
		ordered[i] = m.Clone()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Before(ordered[j])
	})
	return ordered
}

// ValidateBalance reproduce el ledger desde cero y falla en el primer paso que deje el
// saldo negativo. ordered debe venir de Chronological.
func ValidateBalance(ordered []entity.StockMovement) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, m := range ordered {
		balance = applyBalance(balance, m)
		if balance.IsNegative() {
			return decimal.Zero, &domain.NegativeBalanceError{
				MovementID: m.ID,
				At:         m.Timestamp,
				Balance:    balance,
			}
		}
	}
	return balance, nil
}

func applyBalance(balance decimal.Decimal, m entity.StockMovement) decimal.Decimal {
	switch m.Kind {
	case entity.MovementIn:
		return balance.Add(m.Quantity)
	case entity.MovementOut:
		return balance.Sub(m.Quantity)
	case entity.MovementAdjustment:
		return m.Quantity
	}
	return balance
}

// Snapshot estado derivado de un ledger completo.
type Snapshot struct {
	Balance   decimal.Decimal
	UnitPrice *decimal.Decimal       // precio de la entrada con precio más reciente
	Movements []entity.StockMovement // cronológicos, con costos y etiquetas recalculados
}

// Replay recalcula desde cero saldo, costos y etiquetas. Es una función pura del contenido
// del ledger: reproducirlo dos veces produce el mismo Snapshot.
func Replay(movements []entity.StockMovement) (Snapshot, error) {
	ordered := Chronological(movements)

	balance, err := ValidateBalance(ordered)
	if err != nil {
		return Snapshot{}, err
	}
	if err := reprice(ordered); err != nil {
		return Snapshot{}, err
	}
	RelabelInbound(ordered)

	return Snapshot{
		Balance:   balance,
		UnitPrice: LatestInboundPrice(ordered),
		Movements: ordered,
	}, nil
}

// reprice recalcula el costo de cada movimiento. Las salidas y ajustes sin precio manual
// se costean con los lotes formados por los movimientos anteriores a ellos.
func reprice(ordered []entity.StockMovement) error {
	for i := range ordered {
		m := &ordered[i]
		qty := m.Quantity.Abs()

		if m.Kind == entity.MovementIn || m.ManualPrice {
			if m.UnitPrice == nil {
				m.TotalCost = nil
				continue
			}
			total := RoundMoney(qty.Mul(*m.UnitPrice))
			m.TotalCost = &total
			continue
		}

		alloc := Allocate(BuildBatches(ordered[:i]), qty)
		if m.Kind == entity.MovementOut && !alloc.Sufficient() {
			return &domain.InsufficientBatchHistoryError{
				MovementID:  m.ID,
				Requested:   alloc.Requested,
				Covered:     alloc.Covered,
				PartialCost: alloc.TotalCost,
			}
		}
		m.UnitPrice = alloc.UnitPrice
		if alloc.Covered.IsPositive() {
			total := alloc.TotalCost
			m.TotalCost = &total
		} else {
			m.TotalCost = nil
		}
	}
	return nil
}
