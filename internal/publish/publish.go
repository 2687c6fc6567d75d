// Package publish announces parsed manifests on NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/manifest"
)

// DefaultSubject is the subject parsed manifests are published on.
const DefaultSubject = "manifests.parsed"

// Conn is the subset of *nats.Conn used by the publisher.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Event is the message body published for each manifest.
type Event struct {
	ManifestID string           `json:"manifest_id"`
	Source     string           `json:"source,omitempty"`
	ParsedAt   time.Time        `json:"parsed_at"`
	Header     manifest.Header  `json:"header"`
	Totals     aggregate.Totals `json:"totals"`
	Rows       []manifest.Row   `json:"rows"`
}

// NewEvent builds the event of a document. Rows are unfiltered.
func NewEvent(doc *manifest.Document) Event {
	table := aggregate.BuildTable(doc.Header, doc.Records)
	return Event{
		ManifestID: doc.ID,
		Source:     doc.Source,
		ParsedAt:   doc.ParsedAt,
		Header:     doc.Header,
		Totals:     aggregate.Summarise(table),
		Rows:       table.Rows,
	}
}

// Publisher publishes manifest events.
type Publisher struct {
	conn    Conn
	subject string
	logger  *zap.Logger
	closeFn func()
}

// New wraps an existing connection. An empty subject means DefaultSubject.
func New(conn Conn, subject string, logger *zap.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// Connect dials a NATS server.
func Connect(url, subject string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("manifest_parser"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	p := New(nc, subject, logger)
	p.closeFn = nc.Close
	return p, nil
}

// Subject returns the publish subject.
func (p *Publisher) Subject() string { return p.subject }

// Publish sends the event of a document and waits for the server to
// acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, doc *manifest.Document) error {
	data, err := json.Marshal(NewEvent(doc))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}

	p.logger.Debug("manifest published",
		zap.String("subject", p.subject),
		zap.String("manifest_id", doc.ID),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// SaveManifest lets a publisher sit in a storage fan-out.
func (p *Publisher) SaveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	if err := p.Publish(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Close closes the connection if the publisher opened it.
func (p *Publisher) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}
