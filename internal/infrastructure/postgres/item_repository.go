package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
	"github.com/jhoicas/stockwise-forecast/internal/domain/repository"
)

var (
	_ repository.ItemRepository = (*ItemRepo)(nil)
	_ repository.ItemWriter     = (*ItemRepo)(nil)
)

const selectItems = `
	SELECT id, name, category, price, quantity, usage
	FROM items`

// ItemRepo implementación del almacén de artículos sobre PostgreSQL (usable con pool o tx).
// Los campos faltantes se completan aquí con advertencia, no en la lógica de pronóstico.
type ItemRepo struct {
	q   Querier
	log zerolog.Logger
}

// NewItemRepository construye el adaptador de persistencia para artículos. Pasar pool o tx (Querier).
func NewItemRepository(q Querier, log zerolog.Logger) *ItemRepo {
	return &ItemRepo{q: q, log: log.With().Str("component", "postgres").Logger()}
}

// ListItems devuelve el catálogo completo en orden de inserción.
func (r *ItemRepo) ListItems(ctx context.Context) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, selectItems+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var list []*entity.Item
	for rows.Next() {
		it, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return list, nil
}

// GetItem obtiene un artículo por ID; (nil, nil) si no existe.
func (r *ItemRepo) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	it, err := r.scan(r.q.QueryRow(ctx, selectItems+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// UpsertItem inserta o reemplaza un artículo (importador). Conserva la posición original en el catálogo.
func (r *ItemRepo) UpsertItem(ctx context.Context, it *entity.Item) error {
	usage, err := entity.EncodeUsage(it.Usage)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO items (id, name, category, price, quantity, usage, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, category = EXCLUDED.category, price = EXCLUDED.price,
			quantity = EXCLUDED.quantity, usage = EXCLUDED.usage, updated_at = NOW()`
	if _, err := r.q.Exec(ctx, query, it.ID, it.Name, it.Category, it.Price, it.Quantity, usage); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (r *ItemRepo) scan(row pgx.Row) (*entity.Item, error) {
	var (
		it       entity.Item
		category *string
		price    decimal.NullDecimal
		usage    []byte
	)
	if err := row.Scan(&it.ID, &it.Name, &category, &price, &it.Quantity, &usage); err != nil {
		return nil, err
	}

	var fixed []string
	if category != nil {
		it.Category = *category
	}
	if price.Valid {
		it.Price = price.Decimal
	} else {
		fixed = append(fixed, "price")
	}
	u, err := entity.DecodeUsage(usage)
	if err != nil {
		fixed = append(fixed, "usage")
	}
	it.Usage = u
	fixed = append(fixed, it.Sanitize()...)

	if len(fixed) > 0 {
		r.log.Warn().Str("item_id", it.ID).Strs("fields", fixed).Msg("artículo con campos faltantes, se aplican valores por defecto")
	}
	return &it, nil
}
