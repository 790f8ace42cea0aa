// Package metrics colectores Prometheus del servicio con registro propio (expuesto en /metrics).
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockwise-forecast/internal/application/ports"
)

var _ ports.ForecastMetrics = (*Metrics)(nil)

const namespace = "stockwise"

// Metrics agrupa los colectores del motor de pronóstico y de la API HTTP.
type Metrics struct {
	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	items          prometheus.Gauge
	newlyLow       prometheus.Counter
	recovered      prometheus.Counter
	trainings      *prometheus.CounterVec
	modelR2        prometheus.Gauge
	notifications  *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New crea los colectores sobre un registro nuevo (sin estado global: cada instancia es independiente).
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "forecast_cycles_total",
			Help: "Ciclos de pronóstico ejecutados",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "forecast_cycle_duration_seconds",
			Help:    "Duración de un ciclo de pronóstico (lectura del almacén incluida)",
			Buckets: prometheus.DefBuckets,
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "forecast_items",
			Help: "Artículos evaluados en el último ciclo",
		}),
		newlyLow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "forecast_newly_low_total",
			Help: "Transiciones a stock bajo detectadas",
		}),
		recovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "forecast_recovered_defects_total",
			Help: "Artículos con historial ilegible recuperados con consumo 0",
		}),
		trainings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_trainings_total",
			Help: "Entrenamientos del modelo de regresión por resultado",
		}, []string{"result"}),
		modelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "model_r2_score",
			Help: "R² del último entrenamiento exitoso",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_total",
			Help: "Lotes de alertas de stock bajo por resultado",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Peticiones HTTP",
		}, []string{"method", "path", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Latencia de peticiones HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		registry: registry,
	}

	registry.MustRegister(
		m.cycles, m.cycleDuration, m.items, m.newlyLow, m.recovered,
		m.trainings, m.modelR2, m.notifications, m.requests, m.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle registra un ciclo completado.
func (m *Metrics) ObserveCycle(items, newlyLow, recovered int, elapsed time.Duration) {
	m.cycles.Inc()
	m.cycleDuration.Observe(elapsed.Seconds())
	m.items.Set(float64(items))
	m.newlyLow.Add(float64(newlyLow))
	m.recovered.Add(float64(recovered))
}

// ObserveTraining registra un entrenamiento (perezoso o explícito).
func (m *Metrics) ObserveTraining(r2 float64, err error) {
	if err != nil {
		m.trainings.WithLabelValues("rejected").Inc()
		return
	}
	m.trainings.WithLabelValues("ok").Inc()
	m.modelR2.Set(r2)
}

// ObserveNotification registra el resultado de un lote de alertas.
func (m *Metrics) ObserveNotification(sent bool, err error) {
	switch {
	case err != nil:
		m.notifications.WithLabelValues("failed").Inc()
	case sent:
		m.notifications.WithLabelValues("sent").Inc()
	default:
		m.notifications.WithLabelValues("suppressed").Inc()
	}
}

// RecordRequest registra una petición HTTP. path debe ser la ruta registrada, no la URL cruda.
func (m *Metrics) RecordRequest(method, path string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, path, statusClass(status)).Inc()
	m.requestLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry acceso al registro (pruebas, colectores adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
