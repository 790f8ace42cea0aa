package ports

import (
	"context"
	"time"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
)

// Notifier puerto de salida hacia el canal de notificaciones (correo, chat, webhook).
// Cualquier adaptador (shoutrrr, mock) debe implementar esta interfaz.
type Notifier interface {
	// Enabled indica si hay al menos un canal configurado.
	Enabled() bool
	// NotifyLowStock envía un único mensaje con los artículos dados.
	// sent=false sin error significa que el envío se suprimió (enfriamiento).
	NotifyLowStock(ctx context.Context, batchID string, items []dto.ForecastDTO) (sent bool, err error)
}

// ReportGenerator genera el PDF de reposición a partir de un ciclo de pronóstico.
type ReportGenerator interface {
	GenerateRestockReport(list *dto.ForecastListDTO, summary *dto.RestockSummaryDTO) ([]byte, error)
}

// ForecastMetrics puerto de métricas del motor de pronóstico (Prometheus o no-op).
type ForecastMetrics interface {
	ObserveCycle(items, newlyLow, recovered int, elapsed time.Duration)
	ObserveTraining(r2 float64, err error)
	ObserveNotification(sent bool, err error)
}
