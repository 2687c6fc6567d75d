package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"manifest_parser/internal/manifest"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	flushed    int
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.subject = subj
	c.data = data
	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	c.flushed++
	return ctx.Err()
}

func sampleDoc() *manifest.Document {
	doc := manifest.NewDocument("m.pdf")
	doc.Header = manifest.Header{Origin: "CDG", FlightNo: "AF1234"}
	doc.Records = []manifest.ContainerRecord{
		{ID: "PMCAB123", Items: []manifest.ShipmentItem{
			{AWB: "111-22223333", Pieces: 4, Weight: decimal.RequireFromString("120.5")},
		}},
		{ID: "PMCXY999"},
	}
	return doc
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn, "", nil)
	doc := sampleDoc()

	id, err := p.SaveManifest(context.Background(), doc)
	if err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	if id != doc.ID {
		t.Errorf("id = %q, want %q", id, doc.ID)
	}
	if conn.subject != DefaultSubject {
		t.Errorf("subject = %q, want %q", conn.subject, DefaultSubject)
	}
	if conn.flushed != 1 {
		t.Errorf("flushed %d times, want 1", conn.flushed)
	}

	var ev struct {
		ManifestID string `json:"manifest_id"`
		Header     struct {
			Origin string `json:"origin"`
		} `json:"header"`
		Totals struct {
			Containers int    `json:"containers"`
			Pieces     int    `json:"pieces"`
			WeightKg   string `json:"weight_kg"`
		} `json:"totals"`
		Rows []struct {
			ContainerID string `json:"container_id"`
			AWBCount    int    `json:"awb_count"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(conn.data, &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.ManifestID != doc.ID || ev.Header.Origin != "CDG" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Totals.Containers != 2 || ev.Totals.Pieces != 4 || ev.Totals.WeightKg != "120,5" {
		t.Errorf("totals = %+v", ev.Totals)
	}
	if len(ev.Rows) != 2 || ev.Rows[1].ContainerID != "PMCXY999" || ev.Rows[1].AWBCount != 0 {
		t.Errorf("rows = %+v", ev.Rows)
	}
}

func TestPublish_Errors(t *testing.T) {
	boom := errors.New("boom")
	p := New(&fakeConn{publishErr: boom}, "custom.subject", nil)
	if p.Subject() != "custom.subject" {
		t.Errorf("Subject = %q", p.Subject())
	}
	if err := p.Publish(context.Background(), sampleDoc()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(&fakeConn{}, "", nil).Publish(ctx, sampleDoc()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
