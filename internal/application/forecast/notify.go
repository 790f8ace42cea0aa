package forecast

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
)

// NotifyLowStock ejecuta un ciclo y envía una alerta con los artículos recién bajos y los que
// llegarán al umbral en notifyMaxDays días o menos. Los fallos del canal se registran y se
// reportan en el resultado; no se reintenta.
func (uc *ForecastUseCase) NotifyLowStock(ctx context.Context) (*dto.NotifyResultDTO, error) {
	res := &dto.NotifyResultDTO{BatchID: uuid.New().String()}
	if uc.notifier == nil || !uc.notifier.Enabled() {
		res.Reason = "sin canales de notificación configurados"
		return res, nil
	}

	c, err := uc.runCycle(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]dto.ForecastDTO, 0)
	for _, rec := range c.records {
		if rec.NewlyLow || rec.DaysUntilLow <= uc.notifyMaxDays {
			selected = append(selected, toForecastDTO(rec))
		}
	}
	res.Items = len(selected)
	if len(selected) == 0 {
		res.Reason = "ningún artículo requiere alerta"
		return res, nil
	}

	log := uc.log.With().Str("batch_id", res.BatchID).Str("cycle_id", c.id).Logger()
	sent, err := uc.notifier.NotifyLowStock(ctx, res.BatchID, selected)
	uc.metrics.ObserveNotification(sent, err)
	switch {
	case err != nil:
		log.Error().Err(err).Int("items", len(selected)).Msg("envío de alerta de stock bajo fallido")
		res.Reason = err.Error()
	case !sent:
		log.Info().Msg("alerta suprimida por enfriamiento")
		res.Reason = "alerta suprimida por enfriamiento"
	default:
		log.Info().Int("items", len(selected)).Msg("alerta de stock bajo enviada")
	}
	res.Sent = sent && err == nil
	return res, nil
}
