package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"manifest_parser/internal/manifest"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB is an append-only analytics sink: one row per container.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS container_rows (
		manifest_id     String,
		parsed_at       DateTime64(3),
		source          String,
		origin          LowCardinality(String),
		flight_no       LowCardinality(String),
		seq             UInt32,
		container_id    String,
		awb_count       UInt32,
		total_pieces    UInt32,
		total_weight    Decimal(18, 3),
		awbs            Array(String),
		pieces          Array(UInt32),
		weights         Array(Decimal(18, 3))
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(parsed_at)
	ORDER BY (flight_no, parsed_at, manifest_id, seq)
	SETTINGS index_granularity = 8192`)
	if err != nil {
		return fmt.Errorf("create container_rows: %w", err)
	}
	return nil
}

// containerRows flattens a document into analytics rows, in column order.
func containerRows(doc *manifest.Document) [][]any {
	rows := make([][]any, 0, len(doc.Records))
	for i, rec := range doc.Records {
		awbs := make([]string, len(rec.Items))
		pieces := make([]uint32, len(rec.Items))
		weights := make([]decimal.Decimal, len(rec.Items))
		for j, it := range rec.Items {
			awbs[j] = it.AWB
			pieces[j] = uint32(it.Pieces)
			weights[j] = it.Weight
		}
		rows = append(rows, []any{
			doc.ID, doc.ParsedAt, doc.Source, doc.Header.Origin, doc.Header.FlightNo,
			uint32(i), rec.ID, uint32(len(rec.Items)), uint32(rec.TotalPieces()), rec.TotalWeight(),
			awbs, pieces, weights,
		})
	}
	return rows
}

// SaveManifest appends one row per container in a single batch.
func (d *ClickHouseDB) SaveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	rows := containerRows(doc)
	if len(rows) == 0 {
		return doc.ID, nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO container_rows (manifest_id, parsed_at, source, origin, flight_no, seq,
			container_id, awb_count, total_pieces, total_weight, awbs, pieces, weights)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			return "", fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return "", fmt.Errorf("send batch: %w", err)
	}
	return doc.ID, nil
}
