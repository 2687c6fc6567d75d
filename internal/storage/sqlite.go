package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"manifest_parser/internal/manifest"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteDB wraps a SQLite database connection for manifest storage.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS manifests (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		parsed_at TEXT NOT NULL,
		origin TEXT NOT NULL,
		flight_no TEXT NOT NULL,
		pages INTEGER NOT NULL,
		lines INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_manifests_flight ON manifests(flight_no);
	CREATE INDEX IF NOT EXISTS idx_manifests_parsed_at ON manifests(parsed_at);

	CREATE TABLE IF NOT EXISTS containers (
		manifest_id TEXT NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		container_id TEXT NOT NULL,
		PRIMARY KEY (manifest_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_containers_id ON containers(container_id);

	CREATE TABLE IF NOT EXISTS shipments (
		manifest_id TEXT NOT NULL,
		container_seq INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		awb TEXT NOT NULL,
		pieces INTEGER NOT NULL,
		weight TEXT NOT NULL,
		PRIMARY KEY (manifest_id, container_seq, seq),
		FOREIGN KEY (manifest_id, container_seq) REFERENCES containers(manifest_id, seq) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_shipments_awb ON shipments(awb);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveManifest stores a document and all its records in one transaction.
func (d *SQLiteDB) SaveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifests (id, source, parsed_at, origin, flight_no, pages, lines)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Source, doc.ParsedAt.UTC().Format(timeLayout),
		doc.Header.Origin, doc.Header.FlightNo, doc.Pages, doc.Lines)
	if err != nil {
		return "", fmt.Errorf("insert manifest: %w", err)
	}

	for ci, rec := range doc.Records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO containers (manifest_id, seq, container_id) VALUES (?, ?, ?)`,
			doc.ID, ci, rec.ID); err != nil {
			return "", fmt.Errorf("insert container %s: %w", rec.ID, err)
		}
		for si, it := range rec.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO shipments (manifest_id, container_seq, seq, awb, pieces, weight)
				VALUES (?, ?, ?, ?, ?, ?)
			`, doc.ID, ci, si, it.AWB, it.Pieces, it.Weight.String()); err != nil {
				return "", fmt.Errorf("insert shipment %s: %w", it.AWB, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return doc.ID, nil
}

// ListManifests returns archived manifests, newest first.
func (d *SQLiteDB) ListManifests(ctx context.Context, p ListParams) ([]Summary, error) {
	var conditions []string
	var args []interface{}

	if p.FlightNo != "" {
		conditions = append(conditions, "m.flight_no = ?")
		args = append(args, p.FlightNo)
	}
	if p.Origin != "" {
		conditions = append(conditions, "m.origin = ?")
		args = append(args, p.Origin)
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
	query += " ORDER BY m.parsed_at DESC, m.id LIMIT ? OFFSET ?"
	args = append(args, p.limit(), max(p.Offset, 0))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var parsedAt string
		if err := rows.Scan(&s.ID, &s.Source, &parsedAt, &s.Origin, &s.FlightNo,
			&s.Pages, &s.Lines, &s.Containers, &s.AWBs, &s.Pieces); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		s.ParsedAt, _ = time.Parse(timeLayout, parsedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetManifest loads a document with all its records.
func (d *SQLiteDB) GetManifest(ctx context.Context, id string) (*manifest.Document, error) {
	doc := &manifest.Document{ID: id}
	var parsedAt string
	err := d.db.QueryRowContext(ctx, `
		SELECT source, parsed_at, origin, flight_no, pages, lines FROM manifests WHERE id = ?
	`, id).Scan(&doc.Source, &parsedAt, &doc.Header.Origin, &doc.Header.FlightNo, &doc.Pages, &doc.Lines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	doc.ParsedAt, _ = time.Parse(timeLayout, parsedAt)

	rows, err := d.db.QueryContext(ctx, `
		SELECT c.seq, c.container_id, s.awb, s.pieces, s.weight
		FROM containers c
		LEFT JOIN shipments s ON s.manifest_id = c.manifest_id AND s.container_seq = c.seq
		WHERE c.manifest_id = ?
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
			awb         sql.NullString
			pieces      sql.NullInt64
			weight      sql.NullString
		)
		if err := rows.Scan(&seq, &containerID, &awb, &pieces, &weight); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		if seq != lastSeq {
			doc.Records = append(doc.Records, manifest.ContainerRecord{ID: containerID})
			lastSeq = seq
		}
		if !awb.Valid {
			continue
		}
		w, err := decimal.NewFromString(weight.String)
		if err != nil {
			return nil, fmt.Errorf("weight of %s: %w", awb.String, err)
		}
		rec := &doc.Records[len(doc.Records)-1]
		rec.Items = append(rec.Items, manifest.ShipmentItem{AWB: awb.String, Pieces: int(pieces.Int64), Weight: w})
	}
	return doc, rows.Err()
}

// ContainersByAWB returns the container ids an AWB was loaded in, per manifest.
func (d *SQLiteDB) ContainersByAWB(ctx context.Context, awb string) (map[string][]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.manifest_id, c.container_id
		FROM shipments s
		JOIN containers c ON c.manifest_id = s.manifest_id AND c.seq = s.container_seq
		WHERE s.awb = ?
		ORDER BY s.manifest_id, c.seq
	`, awb)
	if err != nil {
		return nil, fmt.Errorf("find awb: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var manifestID, containerID string
		if err := rows.Scan(&manifestID, &containerID); err != nil {
			return nil, err
		}
		out[manifestID] = append(out[manifestID], containerID)
	}
	return out, rows.Err()
}
