package forecast

// Confidence puntaje heurístico en [0,1] y su procedencia.
type Confidence struct {
	Score  float64
	Source Source
}

// ScoreConfidence asigna la confianza según disponibilidad de datos y urgencia del stock.
// Con consumo real: <10 → 0.9, <20 → 0.8, resto 0.7. Sin consumo: <5 → 0.6, <10 → 0.5, resto 0.4.
func ScoreConfidence(profile ConsumptionProfile, quantity int) Confidence {
	if profile.HasUsage() {
		switch {
		case quantity < 10:
			return Confidence{Score: 0.9, Source: SourceUsageData}
		case quantity < 20:
			return Confidence{Score: 0.8, Source: SourceUsageData}
		default:
			return Confidence{Score: 0.7, Source: SourceUsageData}
		}
	}
	switch {
	case quantity < 5:
		return Confidence{Score: 0.6, Source: SourceHeuristic}
	case quantity < 10:
		return Confidence{Score: 0.5, Source: SourceHeuristic}
	default:
		return Confidence{Score: 0.4, Source: SourceHeuristic}
	}
}

// Urgency banda de urgencia mostrada en la pantalla de reposición.
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"  // menos de 7 días
	UrgencyWarning Urgency = "warning" // menos de 14 días
	UrgencyNormal  Urgency = "normal"
)

// UrgencyFor clasifica los días hasta stock bajo.
func UrgencyFor(days int) Urgency {
	switch {
	case days < 7:
		return UrgencyUrgent
	case days < 14:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// ConfidenceLevel etiqueta legible del puntaje: high (> 0.7), medium (> 0.5), low.
func ConfidenceLevel(score float64) string {
	switch {
	case score > 0.7:
		return "high"
	case score > 0.5:
		return "medium"
	default:
		return "low"
	}
}
