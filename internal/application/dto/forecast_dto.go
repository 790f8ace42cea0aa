package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastDTO pronóstico de agotamiento de un artículo.
// predicted_days_until_low sale siempre del estimador por consumo; model_predicted_days_until_low es
// la salida del modelo de regresión (null si no hay suficientes artículos para entrenarlo).
type ForecastDTO struct {
	ProductID              string          `json:"product_id"`
	Name                   string          `json:"name"`
	Category               string          `json:"category"`
	Price                  decimal.Decimal `json:"price"`
	CurrentQuantity        int             `json:"current_quantity"`
	DailyConsumption       float64         `json:"daily_consumption"`
	ActiveDays             int             `json:"active_days"`
	PredictedDaysUntilLow  int             `json:"predicted_days_until_low"`
	DaysSource             string          `json:"days_source"`
	ConfidenceScore        float64         `json:"confidence_score"`
	ConfidenceLevel        string          `json:"confidence_level"` // high | medium | low
	ConfidenceSource       string          `json:"confidence_source"`
	Urgency                string          `json:"urgency"` // urgent | warning | normal
	RecommendedRestockDate time.Time       `json:"recommended_restock_date"`
	RecommendedReorderQty  float64         `json:"recommended_reorder_qty"`
	EstimatedRestockCost   decimal.Decimal `json:"estimated_restock_cost"`
	NewlyLow               bool            `json:"newly_low"`
	ModelDaysUntilLow      *int            `json:"model_predicted_days_until_low"`
}

// ForecastFilter filtros opcionales del listado (query string).
type ForecastFilter struct {
	MaxDays  *int   `query:"max_days"`
	Category string `query:"category"`
	Urgency  string `query:"urgency"`
}

// ForecastListDTO respuesta del listado: ciclo, instante y registros en orden de catálogo.
type ForecastListDTO struct {
	CycleID     string        `json:"cycle_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Items       []ForecastDTO `json:"items"`
}

// TrainResultDTO resultado del entrenamiento. Accuracy repite R² con el nombre que usan los clientes v1.
type TrainResultDTO struct {
	R2Score      float64             `json:"r2_score"`
	Accuracy     float64             `json:"accuracy"`
	Samples      int                 `json:"samples"`
	Coefficients ModelCoefficientDTO `json:"coefficients"`
}

// ModelCoefficientDTO coeficientes del modelo lineal.
type ModelCoefficientDTO struct {
	Intercept float64 `json:"intercept"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// UsagePointDTO evento observado en la serie de tendencia.
type UsagePointDTO struct {
	Date     time.Time `json:"date"`
	Day      float64   `json:"day"`
	Quantity int       `json:"quantity"`
}

// TrendPointDTO punto de la recta ajustada.
type TrendPointDTO struct {
	Day      float64 `json:"day"`
	Quantity float64 `json:"quantity"`
}

// TrendDTO serie de consumo de un artículo para graficar.
// Slope y Line quedan vacíos cuando el ajuste es singular.
type TrendDTO struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Points        []UsagePointDTO `json:"points"`
	Line          []TrendPointDTO `json:"line"`
	Slope         *float64        `json:"slope"`
	Intercept     float64         `json:"intercept"`
	SkippedEvents int             `json:"skipped_events"`
}

// CategorySummaryDTO agregado de reposición por categoría.
type CategorySummaryDTO struct {
	Category     string          `json:"category"`
	Items        int             `json:"items"`
	ReorderUnits float64         `json:"reorder_units"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// RestockSummaryDTO resumen de la pantalla de reposición.
type RestockSummaryDTO struct {
	CycleID        string               `json:"cycle_id"`
	TotalItems     int                  `json:"total_items"`
	ItemsToRestock int                  `json:"items_to_restock"`
	UrgentItems    int                  `json:"urgent_items"`
	WarningItems   int                  `json:"warning_items"`
	LowStockItems  int                  `json:"low_stock_items"`
	NewlyLowItems  int                  `json:"newly_low_items"`
	TotalCost      decimal.Decimal      `json:"total_cost"`
	Categories     []CategorySummaryDTO `json:"categories"`
}

// NotifyResultDTO resultado del envío de alertas de stock bajo.
type NotifyResultDTO struct {
	BatchID string `json:"batch_id"`
	Sent    bool   `json:"sent"`
	Items   int    `json:"items"`
	Reason  string `json:"reason,omitempty"`
}
