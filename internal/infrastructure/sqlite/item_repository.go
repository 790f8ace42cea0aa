// Package sqlite almacén de artículos embebido (modernc.org/sqlite, sin cgo) para despliegues locales y pruebas.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
	"github.com/jhoicas/stockwise-forecast/internal/domain/repository"
)

var (
	_ repository.ItemRepository = (*ItemRepo)(nil)
	_ repository.ItemWriter     = (*ItemRepo)(nil)
)

const schema = `
	CREATE TABLE IF NOT EXISTS items (
		position    INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT    NOT NULL UNIQUE,
		name        TEXT    NOT NULL DEFAULT '',
		category    TEXT,
		price       TEXT,
		quantity    INTEGER NOT NULL DEFAULT 0,
		usage       TEXT    NOT NULL DEFAULT '[]',
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items (category);`

const selectItems = `
	SELECT id, name, category, price, quantity, usage
	FROM items`

// Open abre (o crea) la base SQLite en path. ":memory:" queda limitado a una conexión
// porque cada conexión en memoria es una base distinta.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configurar sqlite: %w", err)
	}
	return db, nil
}

// ItemRepo implementación del almacén de artículos sobre SQLite.
type ItemRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewItemRepository construye el adaptador SQLite.
func NewItemRepository(db *sql.DB, log zerolog.Logger) *ItemRepo {
	return &ItemRepo{db: db, log: log.With().Str("component", "sqlite").Logger()}
}

// Migrate crea la tabla de artículos si no existe.
func (r *ItemRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate items: %w", err)
	}
	return nil
}

// ListItems devuelve el catálogo completo en orden de inserción.
func (r *ItemRepo) ListItems(ctx context.Context) ([]*entity.Item, error) {
	rows, err := r.db.QueryContext(ctx, selectItems+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []*entity.Item
	for rows.Next() {
		it, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

// GetItem obtiene un artículo por ID; (nil, nil) si no existe.
func (r *ItemRepo) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	it, err := r.scan(r.db.QueryRowContext(ctx, selectItems+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// UpsertItem inserta o reemplaza un artículo conservando su posición en el catálogo.
func (r *ItemRepo) UpsertItem(ctx context.Context, it *entity.Item) error {
	usage, err := entity.EncodeUsage(it.Usage)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, price, quantity, usage, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, category = excluded.category, price = excluded.price,
			quantity = excluded.quantity, usage = excluded.usage, updated_at = CURRENT_TIMESTAMP`,
		it.ID, it.Name, it.Category, it.Price.String(), it.Quantity, string(usage))
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepo) scan(row scanner) (*entity.Item, error) {
	var (
		it       entity.Item
		category sql.NullString
		price    decimal.NullDecimal
		usage    sql.NullString
	)
	if err := row.Scan(&it.ID, &it.Name, &category, &price, &it.Quantity, &usage); err != nil {
		return nil, err
	}

	var fixed []string
	it.Category = category.String
	if price.Valid {
		it.Price = price.Decimal
	} else {
		fixed = append(fixed, "price")
	}
	u, err := entity.DecodeUsage([]byte(usage.String))
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
