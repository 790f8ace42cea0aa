package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
)

// columnas obligatorias del CSV; usage es opcional y contiene el JSON del historial.
var requiredColumns = []string{"id", "name", "category", "price", "quantity"}

// jsonItem forma de un artículo exportado como JSON (misma forma que el documento del almacén).
type jsonItem struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Category string              `json:"category"`
	Price    decimal.Decimal     `json:"price"`
	Quantity int                 `json:"quantity"`
	Usage    []entity.UsageEvent `json:"usage"`
}

// decodeInput envuelve r con el decodificador del charset pedido.
func decodeInput(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "-", "")) {
	case "", "utf8":
		return r, nil
	case "latin1", "iso88591":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado %q", charset)
	}
}

// parseCSV lee artículos de un CSV con cabecera. Las columnas se ubican por nombre.
func parseCSV(r io.Reader) ([]*entity.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("falta la columna %q", col)
		}
	}

	var items []*entity.Item
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		it, err := itemFromRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func itemFromRecord(rec []string, idx map[string]int) (*entity.Item, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	it := &entity.Item{ID: field("id"), Name: field("name"), Category: field("category")}
	if it.ID == "" {
		return nil, errors.New("id vacío")
	}
	if raw := field("price"); raw != "" {
		p, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return nil, fmt.Errorf("precio inválido %q", raw)
		}
		it.Price = p
	}
	if raw := field("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("cantidad inválida %q", raw)
		}
		it.Quantity = q
	}
	usage, err := entity.DecodeUsage([]byte(field("usage")))
	if err != nil {
		return nil, fmt.Errorf("historial de %s: %w", it.ID, err)
	}
	it.Usage = usage
	return it, nil
}

// parseJSON lee un arreglo de artículos en JSON.
func parseJSON(r io.Reader) ([]*entity.Item, error) {
	var raw []jsonItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decodificar JSON: %w", err)
	}
	items := make([]*entity.Item, 0, len(raw))
	for i, ji := range raw {
		if ji.ID == "" {
			return nil, fmt.Errorf("artículo %d: id vacío", i)
		}
		items = append(items, &entity.Item{
			ID: ji.ID, Name: ji.Name, Category: ji.Category,
			Price: ji.Price, Quantity: ji.Quantity, Usage: ji.Usage,
		})
	}
	return items, nil
}
