package inventory

import "github.com/shopspring/decimal"

// Valuation valor del stock en mano según los lotes FIFO abiertos.
type Valuation struct {
	OnHand      decimal.Decimal // cantidad cubierta por lotes con precio
	FIFOValue   decimal.Decimal // Σ remanente × precio del lote, 2 decimales
	AverageCost decimal.Decimal // costo promedio ponderado de los lotes abiertos
}

// Value calcula la valoración de los lotes abiertos.
func Value(batches Batches) Valuation {
	onHand := decimal.Zero
	value := decimal.Zero
	avg := decimal.Zero
	for _, b := range batches {
		if !b.Remaining.IsPositive() {
			continue
		}
		avg = WeightedAverageCost(onHand, avg, b.Remaining, b.UnitPrice)
		onHand = onHand.Add(b.Remaining)
		value = value.Add(b.Remaining.Mul(b.UnitPrice))
	}
	return Valuation{
		OnHand:      onHand,
		FIFOValue:   RoundMoney(value),
		AverageCost: RoundMoney(avg),
	}
}

// WeightedAverageCost costo promedio ponderado tras agregar una cantidad a un costo dado.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
