package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost recalcula el costo promedio ponderado tras una entrada (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock resultante <= 0 (existencia negativa previa) el costo de la entrada reemplaza al anterior.
func WeightedAverageCost(onHand, currentCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	if !inQty.IsPositive() {
		return currentCost
	}
	total := onHand.Add(inQty)
	if !total.IsPositive() || onHand.IsNegative() {
		return inCost
	}
	num := onHand.Mul(currentCost).Add(inQty.Mul(inCost))
	return num.Div(total)
}

// LineCost costo unitario de un producto terminado a partir del valor consumido.
// ok=false si la cantidad producida no es positiva.
func LineCost(consumedValue, producedQty decimal.Decimal) (decimal.Decimal, bool) {
	if !producedQty.IsPositive() {
		return decimal.Zero, false
	}
	return consumedValue.Div(producedQty), true
}
