// Package storage archives parsed manifests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"manifest_parser/internal/manifest"
)

// ErrNotFound is returned when a manifest id is not archived.
var ErrNotFound = errors.New("manifest not found")

// Sink accepts parsed manifests.
type Sink interface {
	// SaveManifest stores the document and returns its id.
	SaveManifest(ctx context.Context, doc *manifest.Document) (string, error)
}

// Store is a Sink that can also read manifests back.
type Store interface {
	Sink
	ListManifests(ctx context.Context, p ListParams) ([]Summary, error)
	GetManifest(ctx context.Context, id string) (*manifest.Document, error)
}

// ListParams contains filtering options for listing manifests.
type ListParams struct {
	FlightNo string
	Origin   string
	Limit    int
	Offset   int
}

// limit returns the effective row limit.
func (p ListParams) limit() int {
	if p.Limit <= 0 || p.Limit > 1000 {
		return 100
	}
	return p.Limit
}

// Summary is one line of the manifest archive.
type Summary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ParsedAt   time.Time `json:"parsed_at"`
	Origin     string    `json:"origin"`
	FlightNo   string    `json:"flight_no"`
	Pages      int       `json:"pages"`
	Lines      int       `json:"lines"`
	Containers int       `json:"containers"`
	AWBs       int       `json:"awbs"`
	Pieces     int       `json:"pieces"`
}

// Config holds connection settings for every backend.
type Config struct {
	SQLitePath string
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		SQLitePath: "manifests.db",
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "manifests",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "manifests",
			User:     "manifest",
			Password: "manifest",
		},
	}
}

// Fanout saves to every sink in order. The id returned is the first sink's.
type Fanout []Sink

// SaveManifest implements Sink. It stops at the first failing sink.
func (f Fanout) SaveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	var id string
	for i, s := range f {
		got, err := s.SaveManifest(ctx, doc)
		if err != nil {
			return id, fmt.Errorf("sink %d: %w", i, err)
		}
		if i == 0 {
			id = got
		}
	}
	return id, nil
}

// summarise computes the archive line of a document.
func summarise(doc *manifest.Document) Summary {
	s := Summary{
		ID:         doc.ID,
		Source:     doc.Source,
		ParsedAt:   doc.ParsedAt,
		Origin:     doc.Header.Origin,
		FlightNo:   doc.Header.FlightNo,
		Pages:      doc.Pages,
		Lines:      doc.Lines,
		Containers: len(doc.Records),
	}
	for _, r := range doc.Records {
		s.AWBs += len(r.Items)
		s.Pieces += r.TotalPieces()
	}
	return s
}
