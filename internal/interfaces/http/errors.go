package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
)

// writeError traduce errores de dominio a códigos HTTP y cuerpo dto.ErrorResponse.
// Los 5xx se registran con la ruta; los 4xx no.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrNoUsageHistory):
		status, code = fiber.StatusUnprocessableEntity, "NO_USAGE_HISTORY"
	case errors.Is(err, domain.ErrInsufficientData):
		status, code = fiber.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code = fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, errors.ErrUnsupported):
		status, code = fiber.StatusNotImplemented, "NOT_IMPLEMENTED"
	}

	msg := err.Error()
	var ie *forecast.ItemError
	if errors.As(err, &ie) {
		msg = ie.Error()
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("error atendiendo petición")
		if status == fiber.StatusInternalServerError {
			msg = "error interno"
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
