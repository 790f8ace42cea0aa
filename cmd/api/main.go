package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stockwise-forecast/internal/application/auth"
	"github.com/jhoicas/stockwise-forecast/internal/application/forecast"
	"github.com/jhoicas/stockwise-forecast/internal/domain/repository"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/metrics"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/stockwise-forecast/internal/infrastructure/pdf"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/postgres"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/stockwise-forecast/internal/interfaces/http"
	"github.com/jhoicas/stockwise-forecast/pkg/config"
	"github.com/jhoicas/stockwise-forecast/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()

	var (
		repo repository.ItemRepository
		ping func(context.Context) error
	)
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Store.SQLitePath).Msg("apertura de SQLite")
		}
		defer db.Close()
		itemRepo := sqlite.NewItemRepository(db, log.Component("sqlite"))
		if err := itemRepo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migración SQLite")
		}
		repo, ping = itemRepo, db.PingContext
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración PostgreSQL")
		}
		repo, ping = postgres.NewItemRepository(pool, log.Component("postgres")), pool.Ping
	}

	opts := []forecast.Option{
		forecast.WithReportGenerator(infrapdf.NewRestockReportGenerator(cfg.App.Name)),
		forecast.WithNotifyMaxDays(cfg.Notify.MaxDays),
	}

	var promMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		promMetrics = metrics.New()
		opts = append(opts, forecast.WithMetrics(promMetrics))
	}

	// Alertas: shoutrrr (smtp, slack, telegram, ...). Sin NOTIFY_URLS el endpoint responde sin enviar.
	if cfg.Notify.Enabled() {
		notifier := notify.NewNotifier(cfg.Notify.URLs, cfg.Notify.Cooldown, notify.ShoutrrrSender{}, cfg.App.Name, log.Component("notify"))
		opts = append(opts, forecast.WithNotifier(notifier))
		log.Info().Int("channels", len(cfg.Notify.URLs)).Dur("cooldown", cfg.Notify.Cooldown).Msg("notificaciones activas")
	}

	forecastUC := forecast.NewForecastUseCase(repo, log.Component("forecast"), opts...)
	authUC := auth.NewAuthUseCase(
		auth.Credentials{Email: cfg.Auth.AdminEmail, PasswordHash: cfg.Auth.AdminPasswordHash},
		auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
	)
	if !authUC.Enabled() {
		log.Warn().Msg("sin administrador configurado: /api/auth/login rechazará todas las credenciales")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.DocsPath != "" {
		if _, err := os.Stat(cfg.HTTP.DocsPath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.DocsPath,
				Path:     "docs",
				Title:    "StockWise Forecast API",
			}))
		} else {
			log.Warn().Str("path", cfg.HTTP.DocsPath).Msg("swagger.json no encontrado, /docs desactivado")
		}
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ForecastUC:  forecastUC,
		AuthUC:      authUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
		Metrics:     promMetrics,
		MetricsPath: cfg.Metrics.Path,
		StoreDriver: cfg.Store.Driver,
		StorePing:   ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
