package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockwise-forecast/internal/application/auth"
	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/application/forecast"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/metrics"
	"github.com/jhoicas/stockwise-forecast/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ForecastUC  *forecast.ForecastUseCase
	AuthUC      *auth.AuthUseCase
	JWTSecret   string
	Log         zerolog.Logger
	Metrics     *metrics.Metrics // nil desactiva /metrics
	MetricsPath string
	StoreDriver string
	StorePing   func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(RequestMetrics(deps.Metrics))
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	app.Get("/health", healthHandler(deps))

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Lectura: cualquier rol autenticado. Entrenar y notificar: admin o manager.
	h := NewForecastHandler(deps.ForecastUC, deps.Log)
	authn := AuthMiddleware(deps.JWTSecret)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleEmployee)
	managers := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	forecasts := api.Group("/forecasts", authn)
	forecasts.Get("/", anyRole, h.List)
	forecasts.Get("/newly-low", anyRole, h.NewlyLow)
	forecasts.Get("/summary", anyRole, h.Summary)
	forecasts.Get("/report.pdf", anyRole, h.Report)
	forecasts.Get("/items/:id/trend", anyRole, h.Trend)
	forecasts.Post("/train", managers, h.Train)
	forecasts.Post("/notify", managers, h.Notify)

	// Compatibilidad con los clientes v1 del servicio de predicción
	app.Get("/predictions", authn, anyRole, h.LegacyPredictions)
	app.Post("/train", authn, managers, h.LegacyTrain)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := dto.HealthResponse{Status: "ok", Store: deps.StoreDriver}
		if deps.StorePing != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.StorePing(ctx); err != nil {
				deps.Log.Warn().Err(err).Msg("health: almacén no responde")
				out.Status = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(out)
			}
		}
		return c.JSON(out)
	}
}
