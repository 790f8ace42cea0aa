package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/jhoicas/stockwise-forecast/internal/domain"
)

// TrendResolution cantidad de puntos de la línea de tendencia.
const TrendResolution = 100

// tieJitter amplitud máxima (en días) del desplazamiento aplicado a días repetidos.
const tieJitter = 0.05

// UsagePoint evento observado, en días desde el primer evento.
type UsagePoint struct {
	At       time.Time `json:"at"`
	Day      float64   `json:"day"`
	Quantity int       `json:"quantity"`
}

// TrendPoint punto de la recta ajustada.
type TrendPoint struct {
	Day      float64 `json:"day"`
	Quantity float64 `json:"quantity"`
}

// Trend serie para graficar: puntos crudos y, si el ajuste no es singular, la recta y su pendiente.
type Trend struct {
	Points    []UsagePoint
	Line      []TrendPoint
	Slope     *float64 // unidades/día promedio; nil sin recta
	Intercept float64
}

// HasLine indica si se pudo ajustar la recta.
func (t Trend) HasLine() bool { return t.Slope != nil }

// FitTrend ajusta cantidad vs. días desde el primer evento (polinomio de grado 1).
// Los días repetidos reciben un jitter aleatorio de ±0.05 días para evitar un ajuste degenerado.
// Un ajuste singular deja la recta vacía pero conserva los puntos. Sin eventos devuelve ErrNoUsageHistory.
func FitTrend(events []ParsedEvent, rng *rand.Rand) (Trend, error) {
	if len(events) == 0 {
		return Trend{}, domain.ErrNoUsageHistory
	}

	first := events[0].At
	points := make([]UsagePoint, 0, len(events))
	xs := make([]float64, 0, len(events))
	ys := make([]float64, 0, len(events))
	seen := make(map[float64]bool, len(events))
	for _, e := range events {
		day := e.At.Sub(first).Hours() / 24
		points = append(points, UsagePoint{At: e.At, Day: day, Quantity: e.Quantity})

		x := day
		if seen[x] && rng != nil {
			x += (rng.Float64()*2 - 1) * tieJitter
		}
		seen[day] = true
		xs = append(xs, x)
		ys = append(ys, float64(e.Quantity))
	}

	trend := Trend{Points: points}
	slope, intercept, ok := linearFit(xs, ys)
	if !ok {
		return trend, nil
	}
	trend.Slope = &slope
	trend.Intercept = intercept
	trend.Line = linspaceLine(points[0].Day, points[len(points)-1].Day, slope, intercept)
	return trend, nil
}

// linearFit mínimos cuadrados y = slope*x + intercept. ok=false si el sistema es singular.
func linearFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, 0, false
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var ssXY, ssXX float64
	for i := range xs {
		dx := xs[i] - meanX
		ssXY += dx * (ys[i] - meanY)
		ssXX += dx * dx
	}
	if ssXX < 1e-12 {
		return 0, 0, false
	}
	slope = ssXY / ssXX
	intercept = meanY - slope*meanX
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) {
		return 0, 0, false
	}
	return slope, intercept, true
}

func linspaceLine(from, to, slope, intercept float64) []TrendPoint {
	line := make([]TrendPoint, TrendResolution)
	step := (to - from) / float64(TrendResolution-1)
	for i := range line {
		x := from + step*float64(i)
		if i == TrendResolution-1 {
			x = to
		}
		line[i] = TrendPoint{Day: x, Quantity: slope*x + intercept}
	}
	return line
}
