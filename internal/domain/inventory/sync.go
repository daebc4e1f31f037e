package inventory

import (
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RelabelInbound etiqueta las entradas por posición cronológica: la primera es
// "Initial stock" y las siguientes "Replenishment". Los motivos Custom no se tocan.
func RelabelInbound(ordered []entity.StockMovement) {
	first := true
	for i := range ordered {
		if ordered[i].Kind != entity.MovementIn {
			continue
		}
		if ordered[i].Reason.IsCanonical() {
			if first {
				ordered[i].Reason = entity.InitialStockReason()
			} else {
				ordered[i].Reason = entity.ReplenishmentReason()
			}
		}
		first = false
	}
}

// LatestInboundPrice precio unitario de la entrada con precio más reciente, o nil.
func LatestInboundPrice(ordered []entity.StockMovement) *decimal.Decimal {
	for i := len(ordered) - 1; i >= 0; i-- {
		m := ordered[i]
		if m.Kind == entity.MovementIn && m.UnitPrice != nil {
			p := *m.UnitPrice
			return &p
		}
	}
	return nil
}

// SyncItem aplica al ítem los campos derivados del Snapshot. Sin entradas con precio,
// el precio visible del ítem se conserva.
func SyncItem(item entity.InventoryItem, snap Snapshot) entity.InventoryItem {
	item.CurrentStock = snap.Balance
	if snap.UnitPrice != nil {
		item.UnitPrice = *snap.UnitPrice
	}
	return item
}
