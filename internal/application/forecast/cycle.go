package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
)

// cycle resultado de un ciclo de pronóstico.
type cycle struct {
	id      string
	at      time.Time
	records []forecast.Record
}

// runCycle obtiene una instantánea fresca del catálogo y calcula un registro por artículo, en orden de catálogo.
// Actualiza el estado de transición con la cantidad actual de todos los artículos, incluso los que no cruzan.
// Los ciclos concurrentes se serializan: una instantánea anterior nunca se escribe sobre una más reciente.
func (uc *ForecastUseCase) runCycle(ctx context.Context) (*cycle, error) {
	uc.cycleMu.Lock()
	defer uc.cycleMu.Unlock()

	started := time.Now()
	items, err := uc.repo.ListItems(ctx)
	if err != nil {
		return nil, storeError("listar artículos", err)
	}

	c := &cycle{id: uuid.New().String(), at: uc.now()}
	log := uc.log.With().Str("cycle_id", c.id).Logger()

	recovered := 0
	c.records = make([]forecast.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rec, err := forecast.Evaluate(item, c.at)
		if err != nil {
			// Defecto de datos: se registra y el artículo sigue con perfil en cero.
			recovered++
			log.Warn().Err(err).Str("item_id", item.ID).Msg("historial de consumo ilegible, se usa consumo 0")
		}
		c.records = append(c.records, rec)
	}

	uc.mu.Lock()
	uc.ensureTrainedLocked(c.records)
	newlyLow := 0
	for i := range c.records {
		rec := &c.records[i]
		if uc.model.Trained() {
			days := uc.model.Predict(float64(rec.CurrentQuantity), rec.Price.InexactFloat64())
			rec.ModelDaysUntilLow = &days
		}
		prev, seen := uc.lastQty[rec.ItemID]
		rec.NewlyLow = forecast.CrossedThreshold(prev, seen, rec.CurrentQuantity)
		uc.lastQty[rec.ItemID] = rec.CurrentQuantity
		if rec.NewlyLow {
			newlyLow++
		}
	}
	uc.mu.Unlock()

	uc.metrics.ObserveCycle(len(c.records), newlyLow, recovered, time.Since(started))
	log.Info().
		Int("items", len(c.records)).
		Int("newly_low", newlyLow).
		Int("recovered", recovered).
		Msg("ciclo de pronóstico completado")
	return c, nil
}

// ensureTrainedLocked entrena el modelo de forma perezosa con los registros del ciclo. Requiere uc.mu.
// Si no hay datos suficientes el ciclo sigue sin predicción del modelo.
func (uc *ForecastUseCase) ensureTrainedLocked(records []forecast.Record) {
	if uc.model.Trained() {
		return
	}
	r2, err := uc.model.Fit(samplesFrom(records))
	uc.metrics.ObserveTraining(r2, err)
	if err != nil {
		uc.log.Debug().Err(err).Msg("modelo sin entrenar")
		return
	}
	uc.log.Info().Float64("r2", r2).Int("samples", len(records)).Msg("modelo entrenado (perezoso)")
}

// RunCycle ejecuta un ciclo completo y devuelve los registros en orden de catálogo.
func (uc *ForecastUseCase) RunCycle(ctx context.Context) ([]forecast.Record, error) {
	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}
	return c.records, nil
}

// ListForecasts ejecuta un ciclo y devuelve los registros que pasan los filtros.
// Los filtros se aplican después del ciclo: el estado de transición se actualiza para todo el catálogo.
func (uc *ForecastUseCase) ListForecasts(ctx context.Context, filter dto.ForecastFilter) (*dto.ForecastListDTO, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ForecastListDTO{CycleID: c.id, GeneratedAt: c.at, Items: make([]dto.ForecastDTO, 0, len(c.records))}
	for _, rec := range c.records {
		if matches(rec, filter) {
			out.Items = append(out.Items, toForecastDTO(rec))
		}
	}
	return out, nil
}

// ListNewlyLow ejecuta un ciclo y devuelve solo los artículos que cruzaron el umbral desde el ciclo anterior.
func (uc *ForecastUseCase) ListNewlyLow(ctx context.Context) (*dto.ForecastListDTO, error) {
	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ForecastListDTO{CycleID: c.id, GeneratedAt: c.at, Items: []dto.ForecastDTO{}}
	for _, rec := range c.records {
		if rec.NewlyLow {
			out.Items = append(out.Items, toForecastDTO(rec))
		}
	}
	return out, nil
}

// Summary ejecuta un ciclo y resume la reposición: artículos a pedir, urgencias, costo total y por categoría.
func (uc *ForecastUseCase) Summary(ctx context.Context) (*dto.RestockSummaryDTO, error) {
	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(c), nil
}

// RestockReport genera el PDF de reposición con un único ciclo (listado + resumen coherentes).
func (uc *ForecastUseCase) RestockReport(ctx context.Context) ([]byte, error) {
	if uc.reports == nil {
		return nil, fmt.Errorf("reporte de reposición: %w", errors.ErrUnsupported)
	}
	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}
	list := &dto.ForecastListDTO{CycleID: c.id, GeneratedAt: c.at, Items: make([]dto.ForecastDTO, 0, len(c.records))}
	for _, rec := range c.records {
		list.Items = append(list.Items, toForecastDTO(rec))
	}
	return uc.reports.GenerateRestockReport(list, summarize(c))
}

func summarize(c *cycle) *dto.RestockSummaryDTO {
	s := &dto.RestockSummaryDTO{CycleID: c.id, TotalItems: len(c.records), TotalCost: decimal.Zero}
	byCategory := make(map[string]*dto.CategorySummaryDTO)
	for _, rec := range c.records {
		switch forecast.UrgencyFor(rec.DaysUntilLow) {
		case forecast.UrgencyUrgent:
			s.UrgentItems++
		case forecast.UrgencyWarning:
			s.WarningItems++
		}
		if rec.IsLow() {
			s.LowStockItems++
		}
		if rec.NewlyLow {
			s.NewlyLowItems++
		}
		if rec.ReorderQuantity <= 0 {
			continue
		}
		cost := rec.RestockCost()
		s.ItemsToRestock++
		s.TotalCost = s.TotalCost.Add(cost)

		cat, ok := byCategory[rec.Category]
		if !ok {
			cat = &dto.CategorySummaryDTO{Category: rec.Category, TotalCost: decimal.Zero}
			byCategory[rec.Category] = cat
		}
		cat.Items++
		cat.ReorderUnits += rec.ReorderQuantity
		cat.TotalCost = cat.TotalCost.Add(cost)
	}

	s.Categories = make([]dto.CategorySummaryDTO, 0, len(byCategory))
	for _, cat := range byCategory {
		s.Categories = append(s.Categories, *cat)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if !a.TotalCost.Equal(b.TotalCost) {
			return a.TotalCost.GreaterThan(b.TotalCost)
		}
		return a.Category < b.Category
	})
	return s
}

func validateFilter(f dto.ForecastFilter) error {
	if f.MaxDays != nil && *f.MaxDays < 0 {
		return fmt.Errorf("%w: max_days no puede ser negativo", domain.ErrInvalidInput)
	}
	switch forecast.Urgency(strings.ToLower(f.Urgency)) {
	case "", forecast.UrgencyUrgent, forecast.UrgencyWarning, forecast.UrgencyNormal:
		return nil
	default:
		return fmt.Errorf("%w: urgency debe ser urgent, warning o normal", domain.ErrInvalidInput)
	}
}

func matches(rec forecast.Record, f dto.ForecastFilter) bool {
	if f.MaxDays != nil && rec.DaysUntilLow > *f.MaxDays {
		return false
	}
	if f.Category != "" && !strings.EqualFold(rec.Category, f.Category) {
		return false
	}
	if f.Urgency != "" && string(forecast.UrgencyFor(rec.DaysUntilLow)) != strings.ToLower(f.Urgency) {
		return false
	}
	return true
}

func toForecastDTO(rec forecast.Record) dto.ForecastDTO {
	return dto.ForecastDTO{
		ProductID:              rec.ItemID,
		Name:                   rec.Name,
		Category:               rec.Category,
		Price:                  rec.Price,
		CurrentQuantity:        rec.CurrentQuantity,
		DailyConsumption:       rec.Profile.DailyConsumption,
		ActiveDays:             rec.Profile.ActiveDays,
		PredictedDaysUntilLow:  rec.DaysUntilLow,
		DaysSource:             string(rec.DaysSource),
		ConfidenceScore:        rec.Confidence.Score,
		ConfidenceLevel:        forecast.ConfidenceLevel(rec.Confidence.Score),
		ConfidenceSource:       string(rec.Confidence.Source),
		Urgency:                string(forecast.UrgencyFor(rec.DaysUntilLow)),
		RecommendedRestockDate: rec.RestockDate,
		RecommendedReorderQty:  rec.ReorderQuantity,
		EstimatedRestockCost:   rec.RestockCost(),
		NewlyLow:               rec.NewlyLow,
		ModelDaysUntilLow:      rec.ModelDaysUntilLow,
	}
}
