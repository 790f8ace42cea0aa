package forecast

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stockwise-forecast/internal/application/ports"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
	"github.com/jhoicas/stockwise-forecast/internal/domain/repository"
)

// ForecastUseCase orquesta el ciclo de pronóstico sobre el catálogo completo.
// Es dueño del modelo de regresión y del estado de transición de umbral (última cantidad por artículo);
// ambos viven solo en memoria y los protege un único mutex.
type ForecastUseCase struct {
	repo          repository.ItemRepository
	notifier      ports.Notifier
	reports       ports.ReportGenerator
	metrics       ports.ForecastMetrics
	log           zerolog.Logger
	now           func() time.Time
	notifyMaxDays int

	// cycleMu serializa ciclos completos (lectura del almacén incluida); se toma antes que mu.
	cycleMu sync.Mutex

	mu      sync.Mutex
	model   *forecast.Regression
	lastQty map[string]int
	rng     *rand.Rand
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*ForecastUseCase)

// WithNotifier conecta el canal de alertas de stock bajo.
func WithNotifier(n ports.Notifier) Option {
	return func(uc *ForecastUseCase) { uc.notifier = n }
}

// WithReportGenerator conecta el generador del PDF de reposición.
func WithReportGenerator(g ports.ReportGenerator) Option {
	return func(uc *ForecastUseCase) { uc.reports = g }
}

// WithMetrics conecta el recolector de métricas.
func WithMetrics(m ports.ForecastMetrics) Option {
	return func(uc *ForecastUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// WithClock reemplaza el reloj (pruebas).
func WithClock(now func() time.Time) Option {
	return func(uc *ForecastUseCase) { uc.now = now }
}

// WithRand fija la fuente aleatoria del jitter de tendencia (pruebas reproducibles).
func WithRand(rng *rand.Rand) Option {
	return func(uc *ForecastUseCase) { uc.rng = rng }
}

// WithNotifyMaxDays además de los recién bajos, alerta artículos a N días o menos de stock bajo.
func WithNotifyMaxDays(days int) Option {
	return func(uc *ForecastUseCase) { uc.notifyMaxDays = days }
}

// NewForecastUseCase construye el orquestador con el modelo sin entrenar y el estado de transición vacío.
func NewForecastUseCase(repo repository.ItemRepository, log zerolog.Logger, opts ...Option) *ForecastUseCase {
	uc := &ForecastUseCase{
		repo:          repo,
		metrics:       nopMetrics{},
		log:           log.With().Str("component", "forecast").Logger(),
		now:           time.Now,
		notifyMaxDays: 7,
		model:         forecast.NewRegression(),
		lastQty:       make(map[string]int),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// storeError envuelve un fallo del almacén con ErrStoreUnavailable conservando la causa.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

type nopMetrics struct{}

func (nopMetrics) ObserveCycle(int, int, int, time.Duration) {}
func (nopMetrics) ObserveTraining(float64, error)            {}
func (nopMetrics) ObserveNotification(bool, error)           {}
