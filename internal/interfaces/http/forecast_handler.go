package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/application/forecast"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
)

// ForecastHandler expone el motor de pronóstico.
type ForecastHandler struct {
	uc  *forecast.ForecastUseCase
	log zerolog.Logger
}

// NewForecastHandler construye el handler de pronósticos.
func NewForecastHandler(uc *forecast.ForecastUseCase, log zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{uc: uc, log: log.With().Str("component", "http").Logger()}
}

// List godoc
// @Summary      Pronóstico de agotamiento del catálogo
// @Description  Ejecuta un ciclo de pronóstico. Los filtros se aplican después del ciclo.
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Param        max_days  query  int     false  "solo artículos a N días o menos de stock bajo"
// @Param        category  query  string  false  "categoría (sin distinguir mayúsculas)"
// @Param        urgency   query  string  false  "urgent | warning | normal"
// @Success      200  {object}  dto.ForecastListDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/forecasts [get]
func (h *ForecastHandler) List(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.ListForecasts(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Train godoc
// @Summary      Entrenar el modelo de regresión
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.TrainResultDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/forecasts/train [post]
func (h *ForecastHandler) Train(c *fiber.Ctx) error {
	out, err := h.uc.TrainModel(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Trend godoc
// @Summary      Tendencia de consumo de un artículo
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.TrendDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/forecasts/items/{id}/trend [get]
func (h *ForecastHandler) Trend(c *fiber.Ctx) error {
	out, err := h.uc.GetConsumptionTrend(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// NewlyLow godoc
// @Summary      Artículos que acaban de cruzar el umbral de stock bajo
// @Description  Compara contra el ciclo anterior del proceso; el primer ciclo tras un reinicio no reporta transiciones.
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ForecastListDTO
// @Router       /api/forecasts/newly-low [get]
func (h *ForecastHandler) NewlyLow(c *fiber.Ctx) error {
	out, err := h.uc.ListNewlyLow(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de reposición
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.RestockSummaryDTO
// @Router       /api/forecasts/summary [get]
func (h *ForecastHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Notify godoc
// @Summary      Enviar alerta de stock bajo
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.NotifyResultDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/forecasts/notify [post]
func (h *ForecastHandler) Notify(c *fiber.Ctx) error {
	out, err := h.uc.NotifyLowStock(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte de reposición en PDF
// @Tags         forecasts
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /api/forecasts/report.pdf [get]
func (h *ForecastHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.uc.RestockReport(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="reposicion.pdf"`)
	return c.Send(pdf)
}

// LegacyPredictions GET /predictions: arreglo plano de pronósticos (clientes v1).
func (h *ForecastHandler) LegacyPredictions(c *fiber.Ctx) error {
	out, err := h.uc.ListForecasts(c.UserContext(), dto.ForecastFilter{})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out.Items)
}

// LegacyTrain POST /train: {"accuracy": r2}.
func (h *ForecastHandler) LegacyTrain(c *fiber.Ctx) error {
	out, err := h.uc.TrainModel(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"accuracy": out.Accuracy})
}

func parseFilter(c *fiber.Ctx) (dto.ForecastFilter, error) {
	f := dto.ForecastFilter{
		Category: c.Query("category"),
		Urgency:  c.Query("urgency"),
	}
	if raw := c.Query("max_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: max_days debe ser entero", domain.ErrInvalidInput)
		}
		f.MaxDays = &n
	}
	return f, nil
}
