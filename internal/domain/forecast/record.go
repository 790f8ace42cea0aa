package forecast

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
)

// Record pronóstico de un artículo en un ciclo. Efímero: se arma en cada ciclo y no se persiste.
type Record struct {
	ItemID          string
	Name            string
	Category        string
	Price           decimal.Decimal
	CurrentQuantity int

	Profile         ConsumptionProfile
	DaysUntilLow    int
	DaysSource      Source
	Confidence      Confidence
	RestockDate     time.Time
	ReorderQuantity float64

	// NewlyLow lo fija el orquestador con el estado de transición; Evaluate lo deja en false.
	NewlyLow bool
	// ModelDaysUntilLow predicción del modelo de regresión; nil si el modelo no pudo entrenarse.
	ModelDaysUntilLow *int
}

// RestockCost costo estimado de la reposición sugerida (cantidad × precio).
func (r Record) RestockCost() decimal.Decimal {
	return decimal.NewFromFloat(r.ReorderQuantity).Mul(r.Price).Round(2)
}

// IsLow indica si el artículo está en o bajo el umbral.
func (r Record) IsLow() bool {
	return r.CurrentQuantity <= LowStockThreshold
}

// Evaluate calcula agregador → estimador → confianza → reposición para un artículo.
// Si el historial tiene fechas ilegibles el registro se arma con perfil en cero y se devuelve
// también el error, para que quien llama lo registre sin abortar el lote.
func Evaluate(item *entity.Item, now time.Time) (Record, error) {
	profile, aggErr := Aggregate(item.ID, item.Usage)

	est := EstimateDaysUntilLow(item.Quantity, profile.DailyConsumption)
	rec := Record{
		ItemID:          item.ID,
		Name:            item.Name,
		Category:        item.Category,
		Price:           item.Price,
		CurrentQuantity: item.Quantity,
		Profile:         profile,
		DaysUntilLow:    est.Days,
		DaysSource:      est.Source,
		Confidence:      ScoreConfidence(profile, item.Quantity),
		RestockDate:     now.AddDate(0, 0, est.Days),
		ReorderQuantity: ReorderQuantity(item.Quantity, profile.DailyConsumption),
	}
	return rec, aggErr
}

// CrossedThreshold detecta la transición de arriba del umbral a en-o-bajo entre dos ciclos.
// Sin cantidad previa (primer ciclo o artículo nuevo) nunca hay transición.
func CrossedThreshold(previous int, seen bool, current int) bool {
	return seen && previous > LowStockThreshold && current <= LowStockThreshold
}
