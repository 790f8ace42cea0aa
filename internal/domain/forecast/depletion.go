package forecast

import (
	"math"

	"github.com/shopspring/decimal"
)

// LowStockThreshold cantidad en o bajo la cual un artículo se considera en stock bajo.
const LowStockThreshold = 10

// ReorderCoverageDays días de consumo que debe cubrir la cantidad de reposición recomendada.
const ReorderCoverageDays = 10

// Tasas planas de respaldo cuando no hay consumo observado (unidades/día).
const (
	fallbackRateHighStock = 0.5 // existencias > 20
	fallbackRateLowStock  = 1.0
	highStockLevel        = 20
)

// Estimate días hasta stock bajo y de dónde salió la tasa usada.
type Estimate struct {
	Days   int
	Source Source
}

// EstimateDaysUntilLow calcula los días enteros hasta cruzar el umbral de stock bajo.
//
//	quantity <= 10      → 0
//	daily > 0           → floor((quantity - 10) / daily)
//	sin consumo         → misma fórmula con 0.5 u/día si quantity > 20, si no 1 u/día
func EstimateDaysUntilLow(quantity int, daily float64) Estimate {
	if quantity <= LowStockThreshold {
		return Estimate{Days: 0, Source: SourceBelowThreshold}
	}
	rate, source := daily, SourceUsageData
	if daily <= 0 {
		source = SourceHeuristic
		rate = fallbackRateLowStock
		if quantity > highStockLevel {
			rate = fallbackRateHighStock
		}
	}
	return Estimate{
		Days:   int(math.Floor(float64(quantity-LowStockThreshold) / rate)),
		Source: source,
	}
}

// ReorderQuantity cantidad recomendada de pedido: lo necesario para cubrir ReorderCoverageDays de consumo,
// nunca por debajo del propio umbral. max(0, max(10, ceil(daily*10)) - quantity).
func ReorderQuantity(quantity int, daily float64) float64 {
	target := decimal.NewFromFloat(daily).Mul(decimal.NewFromInt(ReorderCoverageDays)).Ceil()
	if threshold := decimal.NewFromInt(LowStockThreshold); target.LessThan(threshold) {
		target = threshold
	}
	qty := target.Sub(decimal.NewFromInt(int64(quantity)))
	if qty.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return qty.InexactFloat64()
}
