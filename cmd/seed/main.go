// seed importa el catálogo de artículos (CSV o JSON) al almacén configurado.
//
// Uso: go run ./cmd/seed -file articulos.csv [-charset latin1] [-dry-run]
// El almacén se elige con STORE_DRIVER igual que la API.
// CSV: cabecera id,name,category,price,quantity[,usage] donde usage es [{"date": "...", "quantity": n}].
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
	"github.com/jhoicas/stockwise-forecast/internal/domain/repository"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/postgres"
	"github.com/jhoicas/stockwise-forecast/internal/infrastructure/sqlite"
	"github.com/jhoicas/stockwise-forecast/pkg/config"
	"github.com/jhoicas/stockwise-forecast/pkg/logger"
)

func main() {
	file := flag.String("file", "articulos.csv", "archivo CSV o JSON a importar")
	charset := flag.String("charset", "utf-8", "codificación del archivo: utf-8 | latin1 | windows-1252")
	dryRun := flag.Bool("dry-run", false, "solo valida el archivo, no escribe")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	items, err := readItems(*file, *charset)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("lectura del catálogo")
	}
	log.Info().Int("items", len(items)).Str("file", *file).Msg("catálogo leído")
	if *dryRun {
		return
	}

	ctx := context.Background()
	var (
		written   int
		importErr error
	)
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("apertura de SQLite")
		}
		defer db.Close()
		repo := sqlite.NewItemRepository(db, log.Component("sqlite"))
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migración SQLite")
		}
		written, importErr = importItems(ctx, repo, items)
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración PostgreSQL")
		}
		// Una sola transacción: si una fila falla no queda el catálogo a medias.
		runner := postgres.NewTxRunner(pool, log.Component("postgres"))
		importErr = runner.Run(ctx, func(w repository.ItemWriter) error {
			n, err := importItems(ctx, w, items)
			written = n
			return err
		})
		if importErr != nil {
			written = 0
		}
	}

	if importErr != nil {
		log.Error().Err(importErr).Int("written", written).Msg("importación interrumpida")
		os.Exit(1)
	}
	log.Info().Int("written", written).Str("store", cfg.Store.Driver).Msg("importación completada")
}

func readItems(path, charset string) ([]*entity.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decodeInput(f, charset)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(r)
	}
	return parseCSV(r)
}

// importItems escribe en orden; devuelve cuántos se escribieron antes del primer error.
func importItems(ctx context.Context, w repository.ItemWriter, items []*entity.Item) (int, error) {
	for i, it := range items {
		if err := w.UpsertItem(ctx, it); err != nil {
			return i, fmt.Errorf("artículo %s: %w", it.ID, err)
		}
	}
	return len(items), nil
}
