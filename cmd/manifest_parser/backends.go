package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"manifest_parser/internal/assembler"
	"manifest_parser/internal/classifier"
	"manifest_parser/internal/config"
	"manifest_parser/internal/pdftext"
	"manifest_parser/internal/publish"
	"manifest_parser/internal/storage"
)

// parserFlags override the MANIFEST_* settings.
type parserFlags struct {
	variant     string
	flush       string
	mode        string
	headerPages int
	sort        bool
}

func (f *parserFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.variant, "variant", "", "Classifier variant: loose or strict")
	cmd.Flags().StringVar(&f.flush, "flush", "", "Flush policy: always or non-empty")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Text extraction mode: fragments, rows or plain")
	cmd.Flags().IntVar(&f.headerPages, "header-pages", 0, "Pages scanned for the flight header")
	cmd.Flags().BoolVar(&f.sort, "sort", false, "Sort containers by total pieces")
}

// apply returns pc with every flag set on the command layered on top.
func (f *parserFlags) apply(cmd *cobra.Command, pc config.ParserConfig) (config.ParserConfig, error) {
	var err error
	if cmd.Flags().Changed("variant") {
		if pc.Variant, err = classifier.ParseVariant(f.variant); err != nil {
			return pc, err
		}
	}
	if cmd.Flags().Changed("flush") {
		if pc.Flush, err = assembler.ParseFlushPolicy(f.flush); err != nil {
			return pc, err
		}
	}
	if cmd.Flags().Changed("mode") {
		if pc.ExtractMode, err = pdftext.ParseMode(f.mode); err != nil {
			return pc, err
		}
	}
	if cmd.Flags().Changed("header-pages") {
		pc.HeaderPages = f.headerPages
	}
	if cmd.Flags().Changed("sort") {
		pc.SortByPieces = f.sort
	}
	return pc, nil
}

// backendFlags select where parsed manifests go.
type backendFlags struct {
	sqlite     string
	postgres   bool
	clickhouse bool
	natsURL    string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "SQLite archive path (env: SQLITE_PATH)")
	cmd.Flags().BoolVar(&f.postgres, "postgres", false, "Archive to PostgreSQL (env: POSTGRES_*)")
	cmd.Flags().BoolVar(&f.clickhouse, "clickhouse", false, "Append container rows to ClickHouse (env: CLICKHOUSE_*)")
	cmd.Flags().StringVar(&f.natsURL, "nats-url", "", "Publish parsed manifests to NATS (env: NATS_URL)")
}

// backends are the open archive and publishing connections.
type backends struct {
	// store is the first readable archive, nil when none is configured.
	store  storage.Store
	sinks  storage.Fanout
	closer []func()
}

// openBackends connects every configured backend. On error the ones already
// opened are closed.
func openBackends(ctx context.Context, f backendFlags, c *config.Config) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	sqlitePath := f.sqlite
	if sqlitePath == "" {
		sqlitePath = c.Storage.SQLitePath
	}
	if sqlitePath != "" {
		db, err := storage.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.add(db, func() { _ = db.Close() })
		logger.Debug("sqlite archive enabled", zap.String("path", sqlitePath))
	}

	if f.postgres {
		db, err := storage.OpenPostgres(ctx, c.Storage.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		b.add(db, db.Close)
		if err := db.CreateSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		logger.Debug("postgres archive enabled", zap.String("host", c.Storage.Postgres.Host))
	}

	if f.clickhouse {
		db, err := storage.OpenClickHouse(ctx, c.Storage.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("open clickhouse: %w", err)
		}
		b.add(db, func() { _ = db.Close() })
		if err := db.CreateSchema(ctx); err != nil {
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		logger.Debug("clickhouse sink enabled", zap.String("host", c.Storage.ClickHouse.Host))
	}

	natsURL := f.natsURL
	if natsURL == "" {
		natsURL = c.NATS.URL
	}
	if natsURL != "" {
		pub, err := publish.Connect(natsURL, c.NATS.Subject, logger)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		b.add(pub, pub.Close)
		logger.Debug("nats publishing enabled", zap.String("subject", pub.Subject()))
	}

	return b, nil
}

func (b *backends) add(s storage.Sink, closeFn func()) {
	b.sinks = append(b.sinks, s)
	b.closer = append(b.closer, closeFn)
	if st, ok := s.(storage.Store); ok && b.store == nil {
		b.store = st
	}
}

// Sink returns the fan-out of every backend, or nil when there are none.
func (b *backends) Sink() storage.Sink {
	if len(b.sinks) == 0 {
		return nil
	}
	return b.sinks
}

// Close closes the backends in reverse order.
func (b *backends) Close() {
	for i := len(b.closer) - 1; i >= 0; i-- {
		b.closer[i]()
	}
	b.closer = nil
}
