package fulfillment

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(onHand, currentCost, inboundQty, inboundCost decimal.Decimal) decimal.Decimal {
	sum := onHand.Add(inboundQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := onHand.Mul(currentCost).Add(inboundQty.Mul(inboundCost))
	return num.Div(sum)
}
