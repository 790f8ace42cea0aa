package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// requestRecorder lo implementa *metrics.Metrics.
type requestRecorder interface {
	RecordRequest(method, path string, status int, elapsed time.Duration)
}

// RequestMetrics registra método, ruta registrada (no la URL cruda) y estado de cada petición.
func RequestMetrics(rec requestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		rec.RecordRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
