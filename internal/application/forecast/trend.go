package forecast

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
)

// GetConsumptionTrend serie de consumo de un artículo con su recta de tendencia.
// Artículo inexistente → ErrNotFound; sin historial utilizable → ErrNoUsageHistory (ambos como *forecast.ItemError).
func (uc *ForecastUseCase) GetConsumptionTrend(ctx context.Context, itemID string) (*dto.TrendDTO, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: id de artículo vacío", domain.ErrInvalidInput)
	}
	item, err := uc.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeError("obtener artículo", err)
	}
	if item == nil {
		return nil, &forecast.ItemError{ItemID: itemID, ItemName: itemID, Reason: "artículo no encontrado", Err: domain.ErrNotFound}
	}
	if !item.HasUsage() {
		return nil, &forecast.ItemError{ItemID: item.ID, ItemName: item.Name, Reason: "sin historial de consumo", Err: domain.ErrNoUsageHistory}
	}

	events, skipped := forecast.SortEventsSkipping(item.Usage)
	if skipped > 0 {
		uc.log.Warn().Str("item_id", item.ID).Int("skipped", skipped).Msg("eventos con fecha ilegible omitidos de la tendencia")
	}
	if len(events) == 0 {
		return nil, &forecast.ItemError{ItemID: item.ID, ItemName: item.Name, Reason: "ningún evento de consumo tiene fecha válida", Err: domain.ErrNoUsageHistory}
	}

	uc.mu.Lock()
	trend, err := forecast.FitTrend(events, uc.rng)
	uc.mu.Unlock()
	if err != nil {
		return nil, &forecast.ItemError{ItemID: item.ID, ItemName: item.Name, Reason: "sin historial de consumo", Err: err}
	}
	if !trend.HasLine() {
		uc.log.Debug().Str("item_id", item.ID).Msg("ajuste singular, tendencia sin recta")
	}

	out := &dto.TrendDTO{
		ProductID:     item.ID,
		Name:          item.Name,
		Points:        make([]dto.UsagePointDTO, 0, len(trend.Points)),
		Line:          make([]dto.TrendPointDTO, 0, len(trend.Line)),
		Slope:         trend.Slope,
		Intercept:     trend.Intercept,
		SkippedEvents: skipped,
	}
	for _, p := range trend.Points {
		out.Points = append(out.Points, dto.UsagePointDTO{Date: p.At, Day: p.Day, Quantity: p.Quantity})
	}
	for _, p := range trend.Line {
		out.Line = append(out.Line, dto.TrendPointDTO{Day: p.Day, Quantity: p.Quantity})
	}
	return out, nil
}
