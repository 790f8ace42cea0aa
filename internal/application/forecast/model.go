package forecast

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
)

// TrainModel entrena (o reentrena) el modelo con una instantánea fresca del catálogo.
// El objetivo de cada fila es la estimación por consumo del estimador de agotamiento.
// Reemplaza por completo los coeficientes anteriores; si falla, el modelo previo sigue vigente.
func (uc *ForecastUseCase) TrainModel(ctx context.Context) (*dto.TrainResultDTO, error) {
	samples, err := uc.snapshotSamples(ctx)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	r2, err := uc.model.Fit(samples)
	coef := uc.model.Coefficients()
	uc.mu.Unlock()

	uc.metrics.ObserveTraining(r2, err)
	if err != nil {
		uc.log.Warn().Err(err).Int("samples", len(samples)).Msg("entrenamiento rechazado")
		return nil, err
	}
	uc.log.Info().Float64("r2", r2).Int("samples", len(samples)).Msg("modelo entrenado")

	return &dto.TrainResultDTO{
		R2Score:  r2,
		Accuracy: r2,
		Samples:  len(samples),
		Coefficients: dto.ModelCoefficientDTO{
			Intercept: coef.Intercept,
			Quantity:  coef.Quantity,
			Price:     coef.Price,
		},
	}, nil
}

// PredictDaysUntilLow predicción del modelo para (cantidad, precio), entrenándolo primero si hace falta.
func (uc *ForecastUseCase) PredictDaysUntilLow(ctx context.Context, quantity int, price decimal.Decimal) (int, error) {
	uc.mu.Lock()
	trained := uc.model.Trained()
	uc.mu.Unlock()

	if !trained {
		if _, err := uc.TrainModel(ctx); err != nil {
			return 0, err
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.model.Predict(float64(quantity), price.InexactFloat64()), nil
}

func (uc *ForecastUseCase) snapshotSamples(ctx context.Context) ([]forecast.Sample, error) {
	items, err := uc.repo.ListItems(ctx)
	if err != nil {
		return nil, storeError("listar artículos", err)
	}
	now := uc.now()
	records := make([]forecast.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rec, err := forecast.Evaluate(item, now)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("historial de consumo ilegible, se usa consumo 0")
		}
		records = append(records, rec)
	}
	return samplesFrom(records), nil
}

func samplesFrom(records []forecast.Record) []forecast.Sample {
	samples := make([]forecast.Sample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, forecast.Sample{
			Quantity: float64(rec.CurrentQuantity),
			Price:    rec.Price.InexactFloat64(),
			Target:   float64(rec.DaysUntilLow),
		})
	}
	return samples
}
