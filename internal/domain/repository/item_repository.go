package repository

import (
	"context"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
)

// ItemRepository define el puerto de lectura del catálogo de artículos (DIP).
// Cada llamada devuelve una instantánea completa y fresca; no hay caché ni paginación.
type ItemRepository interface {
	// ListItems devuelve todos los artículos en el orden del catálogo.
	ListItems(ctx context.Context) ([]*entity.Item, error)
	// GetItem devuelve el artículo o (nil, nil) si no existe.
	GetItem(ctx context.Context, id string) (*entity.Item, error)
}

// ItemWriter puerto de escritura usado por el importador (cmd/seed); la API solo lee.
type ItemWriter interface {
	UpsertItem(ctx context.Context, item *entity.Item) error
}
