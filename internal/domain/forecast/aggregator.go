// Package forecast contiene el motor de pronóstico de agotamiento de inventario (servicios de dominio puros):
// agregación de consumo, estimación de días hasta stock bajo, confianza, regresión y tendencia.
// No conoce HTTP, base de datos ni logging; los casos de uso lo orquestan.
package forecast

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
)

// Source indica de dónde sale un valor del pronóstico (datos reales o heurística de respaldo).
type Source string

const (
	SourceUsageData      Source = "usage_data"      // calculado con el historial de consumo
	SourceHeuristic      Source = "heuristic"       // tasa plana de respaldo
	SourceBelowThreshold Source = "below_threshold" // ya está en o bajo el umbral
	SourceNoUsage        Source = "no_usage"        // historial vacío
	SourceMalformed      Source = "malformed_usage" // historial con fechas ilegibles, se descartó
)

// ConsumptionProfile perfil de consumo derivado de un artículo. Se recalcula en cada ciclo, nunca se persiste.
type ConsumptionProfile struct {
	ItemID           string
	DailyConsumption float64 // unidades/día, redondeado a 2 decimales
	ActiveDays       int     // fechas de calendario distintas con al menos un evento
	TotalUsed        int
	Source           Source
}

// HasUsage indica si el perfil tiene señal de consumo utilizable.
func (p ConsumptionProfile) HasUsage() bool {
	return p.ActiveDays > 0 && p.DailyConsumption > 0
}

// ParsedEvent evento de consumo con la fecha ya normalizada (hora local sin zona).
type ParsedEvent struct {
	At       time.Time
	Quantity int
}

// zoneSuffix captura el indicador de zona final: "Z", "+05:30", "-0500".
var zoneSuffix = regexp.MustCompile(`(?i)(z|[+-]\d{2}:?\d{2})$`)

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp elimina el indicador de zona final y parsea la fecha como hora local "naive".
// Las fechas se comparan por su valor de reloj; el resultado queda etiquetado en UTC solo para aritmética.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "Tt "); i > 0 {
		sep := s[i]
		if sep == 't' {
			sep = 'T'
		}
		// Separador seguido solo de zona ("2024-01-05 Z"): no hay hora que leer.
		clock := strings.TrimSpace(zoneSuffix.ReplaceAllString(s[i+1:], ""))
		if clock == "" {
			return time.Time{}, fmt.Errorf("%w: %q", domain.ErrMalformedTimestamp, raw)
		}
		s = s[:i] + string(sep) + clock
	} else {
		s = strings.TrimRight(s, "Zz")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrMalformedTimestamp, raw)
}

// SortEvents parsea y ordena ascendentemente los eventos. Falla con el primer timestamp ilegible.
func SortEvents(events []entity.UsageEvent) ([]ParsedEvent, error) {
	parsed := make([]ParsedEvent, 0, len(events))
	for _, e := range events {
		at, err := ParseTimestamp(e.Timestamp)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, ParsedEvent{At: at, Quantity: e.Quantity})
	}
	sortParsed(parsed)
	return parsed, nil
}

// SortEventsSkipping como SortEvents pero descarta los eventos ilegibles y devuelve cuántos se omitieron.
func SortEventsSkipping(events []entity.UsageEvent) ([]ParsedEvent, int) {
	parsed := make([]ParsedEvent, 0, len(events))
	skipped := 0
	for _, e := range events {
		at, err := ParseTimestamp(e.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		parsed = append(parsed, ParsedEvent{At: at, Quantity: e.Quantity})
	}
	sortParsed(parsed)
	return parsed, skipped
}

func sortParsed(parsed []ParsedEvent) {
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].At.Before(parsed[j].At) })
}

// Aggregate convierte el historial crudo de un artículo en su perfil de consumo.
//
//	total_used  = Σ cantidades
//	active_days = fechas de calendario distintas (no instantes)
//	daily       = total_used / active_days, 0 si no hay días activos; redondeado a 2 decimales
//
// Si algún timestamp es ilegible devuelve el perfil en cero (SourceMalformed) junto con el error,
// para que el orquestador registre la advertencia y siga con el resto del lote.
func Aggregate(itemID string, events []entity.UsageEvent) (ConsumptionProfile, error) {
	profile := ConsumptionProfile{ItemID: itemID, Source: SourceNoUsage}
	if len(events) == 0 {
		return profile, nil
	}

	parsed, err := SortEvents(events)
	if err != nil {
		profile.Source = SourceMalformed
		return profile, err
	}

	days := make(map[string]struct{}, len(parsed))
	total := 0
	for _, e := range parsed {
		total += e.Quantity
		days[e.At.Format("2006-01-02")] = struct{}{}
	}

	profile.TotalUsed = total
	profile.ActiveDays = len(days)
	if profile.ActiveDays > 0 {
		profile.DailyConsumption = decimal.NewFromInt(int64(total)).
			Div(decimal.NewFromInt(int64(profile.ActiveDays))).
			Round(2).
			InexactFloat64()
	}
	if profile.HasUsage() {
		profile.Source = SourceUsageData
	}
	return profile, nil
}
