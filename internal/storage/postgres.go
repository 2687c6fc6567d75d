package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"manifest_parser/internal/manifest"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DSN returns the connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// PostgresDB wraps a PostgreSQL connection pool for the shared manifest archive.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS manifests (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		parsed_at   TIMESTAMPTZ NOT NULL,
		origin      TEXT NOT NULL,
		flight_no   TEXT NOT NULL,
		pages       INTEGER NOT NULL,
		lines       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_manifests_flight ON manifests(flight_no);
	CREATE INDEX IF NOT EXISTS idx_manifests_parsed_at ON manifests(parsed_at);

	CREATE TABLE IF NOT EXISTS containers (
		manifest_id     TEXT NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL,
		container_id    TEXT NOT NULL,
		PRIMARY KEY (manifest_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_containers_id ON containers(container_id);

	CREATE TABLE IF NOT EXISTS shipments (
		manifest_id     TEXT NOT NULL,
		container_seq   INTEGER NOT NULL,
		seq             INTEGER NOT NULL,
		awb             TEXT NOT NULL,
		pieces          INTEGER NOT NULL,
		weight          NUMERIC(14,3) NOT NULL,
		PRIMARY KEY (manifest_id, container_seq, seq),
		FOREIGN KEY (manifest_id, container_seq) REFERENCES containers(manifest_id, seq) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_shipments_awb ON shipments(awb);
	`
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveManifest stores a document and its records in one transaction.
func (d *PostgresDB) SaveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO manifests (id, source, parsed_at, origin, flight_no, pages, lines)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.Source, doc.ParsedAt, doc.Header.Origin, doc.Header.FlightNo, doc.Pages, doc.Lines)
	if err != nil {
		return "", fmt.Errorf("insert manifest: %w", err)
	}

	batch := &pgx.Batch{}
	for ci, rec := range doc.Records {
		batch.Queue(`INSERT INTO containers (manifest_id, seq, container_id) VALUES ($1, $2, $3)`,
			doc.ID, ci, rec.ID)
		for si, it := range rec.Items {
			batch.Queue(`
				INSERT INTO shipments (manifest_id, container_seq, seq, awb, pieces, weight)
				VALUES ($1, $2, $3, $4, $5, $6::numeric)
			`, doc.ID, ci, si, it.AWB, it.Pieces, it.Weight.String())
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return "", fmt.Errorf("insert records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return doc.ID, nil
}

// ListManifests returns archived manifests, newest first.
func (d *PostgresDB) ListManifests(ctx context.Context, p ListParams) ([]Summary, error) {
	var conditions []string
	var args []interface{}
	argN := 1

	if p.FlightNo != "" {
		conditions = append(conditions, fmt.Sprintf("m.flight_no = $%d", argN))
		args = append(args, p.FlightNo)
		argN++
	}
	if p.Origin != "" {
		conditions = append(conditions, fmt.Sprintf("m.origin = $%d", argN))
		args = append(args, p.Origin)
		argN++
	}

	query := `
		SELECT m.id, m.source, m.parsed_at, m.origin, m.flight_no, m.pages, m.lines,
			(SELECT COUNT(*) FROM containers c WHERE c.manifest_id = m.id),
			(SELECT COUNT(*) FROM shipments s WHERE s.manifest_id = m.id),
			(SELECT COALESCE(SUM(s.pieces), 0) FROM shipments s WHERE s.manifest_id = m.id)
		FROM manifests m`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY m.parsed_at DESC, m.id LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, p.limit(), max(p.Offset, 0))

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var containers, awbs, pieces int64
		if err := rows.Scan(&s.ID, &s.Source, &s.ParsedAt, &s.Origin, &s.FlightNo,
			&s.Pages, &s.Lines, &containers, &awbs, &pieces); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		s.Containers, s.AWBs, s.Pieces = int(containers), int(awbs), int(pieces)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetManifest loads a document with all its records.
func (d *PostgresDB) GetManifest(ctx context.Context, id string) (*manifest.Document, error) {
	doc := &manifest.Document{ID: id}
	err := d.pool.QueryRow(ctx, `
		SELECT source, parsed_at, origin, flight_no, pages, lines FROM manifests WHERE id = $1
	`, id).Scan(&doc.Source, &doc.ParsedAt, &doc.Header.Origin, &doc.Header.FlightNo, &doc.Pages, &doc.Lines)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT c.seq, c.container_id, s.awb, s.pieces, s.weight::text
		FROM containers c
		LEFT JOIN shipments s ON s.manifest_id = c.manifest_id AND s.container_seq = c.seq
		WHERE c.manifest_id = $1
		ORDER BY c.seq, s.seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get containers: %w", err)
	}
	defer rows.Close()

	lastSeq := -1
	for rows.Next() {
		var (
			seq         int
			containerID string
			awb         *string
			pieces      *int
			weight      *string
		)
		if err := rows.Scan(&seq, &containerID, &awb, &pieces, &weight); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		if seq != lastSeq {
			doc.Records = append(doc.Records, manifest.ContainerRecord{ID: containerID})
			lastSeq = seq
		}
		if awb == nil || pieces == nil || weight == nil {
			continue
		}
		w, err := decimal.NewFromString(*weight)
		if err != nil {
			return nil, fmt.Errorf("weight of %s: %w", *awb, err)
		}
		rec := &doc.Records[len(doc.Records)-1]
		rec.Items = append(rec.Items, manifest.ShipmentItem{AWB: *awb, Pieces: *pieces, Weight: w})
	}
	return doc, rows.Err()
}
