package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
)

type memWriter struct {
	items  []*entity.Item
	failOn string
}

func (w *memWriter) UpsertItem(_ context.Context, it *entity.Item) error {
	if it.ID == w.failOn {
		return errors.New("almacén caído")
	}
	w.items = append(w.items, it)
	return nil
}

func TestParseCSV_ColumnasPorNombreEHistorial(t *testing.T) {
	in := "quantity,id,name,category,price,usage\n" +
		`12,a1,Tornillos,ferretería,"1,50","[{""date"":""2024-04-01"",""quantity"":3}]"` + "\n" +
		"0,a2,Guantes,,4,\n"

	items, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, 12, items[0].Quantity)
	assert.Equal(t, "1.5", items[0].Price.String())
	require.Len(t, items[0].Usage, 1)
	assert.Equal(t, "2024-04-01", items[0].Usage[0].Timestamp)
	assert.Equal(t, 3, items[0].Usage[0].Quantity)

	assert.Empty(t, items[1].Category, "el valor por defecto lo aplica el almacén al leer")
	assert.Nil(t, items[1].Usage)
}

func TestParseCSV_FaltaColumna(t *testing.T) {
	_, err := parseCSV(strings.NewReader("id,name,price,quantity\na,b,1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
}

func TestParseCSV_CantidadInvalidaIndicaLinea(t *testing.T) {
	_, err := parseCSV(strings.NewReader("id,name,category,price,quantity\na,b,c,1,muchos\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 2")
}

func TestDecodeInput_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("id,name,category,price,quantity\nx,Café,bebidas,3,1\n")
	require.NoError(t, err)

	r, err := decodeInput(bytes.NewReader([]byte(raw)), "latin1")
	require.NoError(t, err)
	items, err := parseCSV(r)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Café", items[0].Name)
}

func TestDecodeInput_CharsetDesconocido(t *testing.T) {
	_, err := decodeInput(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	in := `[{"id":"a","name":"Cinta","category":"oficina","price":2.5,"quantity":7,
		"usage":[{"date":"2024-04-01T10:00:00Z","quantity":2}]}]`
	items, err := parseJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2.5", items[0].Price.String())
	assert.Len(t, items[0].Usage, 1)
}

func TestImportItems_SeDetieneEnElPrimerError(t *testing.T) {
	w := &memWriter{failOn: "b"}
	items := []*entity.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	n, err := importItems(context.Background(), w, items)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, w.items, 1)
}
