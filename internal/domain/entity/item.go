package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCategory categoría asignada cuando el documento del almacén no trae una.
const DefaultCategory = "uncategorized"

// Item representa un artículo del catálogo tal como lo entrega el almacén de artículos (solo lectura).
// La lista Usage puede venir desordenada; el agregador de consumo la ordena por fecha.
type Item struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal // precio unitario, nunca negativo
	Quantity int             // existencias actuales
	Usage    []UsageEvent
}

// UsageEvent un registro de consumo: fecha (texto crudo, puede terminar en "Z" u offset) y unidades consumidas.
type UsageEvent struct {
	Timestamp string `json:"date"`
	Quantity  int    `json:"quantity"`
}

// HasUsage indica si el artículo tiene al menos un evento de consumo registrado.
func (i *Item) HasUsage() bool {
	return len(i.Usage) > 0
}

// Sanitize aplica los valores por defecto en el borde del almacén (categoría vacía, precio o cantidad
// negativos, nombre vacío) y devuelve los campos corregidos para que el adaptador lo registre.
func (i *Item) Sanitize() []string {
	var fixed []string
	if i.Category == "" {
		i.Category = DefaultCategory
		fixed = append(fixed, "category")
	}
	if i.Price.IsNegative() {
		i.Price = decimal.Zero
		fixed = append(fixed, "price")
	}
	if i.Quantity < 0 {
		i.Quantity = 0
		fixed = append(fixed, "quantity")
	}
	if i.Name == "" {
		i.Name = i.ID
		fixed = append(fixed, "name")
	}
	return fixed
}

// DecodeUsage decodifica el historial serializado por el almacén ([{"date": "...", "quantity": n}]).
// Vacío o null equivale a sin historial.
func DecodeUsage(raw []byte) ([]UsageEvent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var usage []UsageEvent
	if err := json.Unmarshal(raw, &usage); err != nil {
		return nil, fmt.Errorf("historial de consumo: %w", err)
	}
	return usage, nil
}

// EncodeUsage serializa el historial; nil se guarda como arreglo vacío.
func EncodeUsage(usage []UsageEvent) ([]byte, error) {
	if usage == nil {
		usage = []UsageEvent{}
	}
	return json.Marshal(usage)
}
