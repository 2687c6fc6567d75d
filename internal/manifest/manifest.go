// Package manifest provides cargo manifest types and structures.
package manifest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unknown is the value of header fields that could not be found.
const Unknown = "UNKNOWN"

// Page is the ordered list of text lines extracted from one document page.
// Line order is exactly what the extractor emitted.
type Page struct {
	Number int      `json:"number"`
	Lines  []string `json:"lines"`
}

// LineCount returns the total number of lines across pages.
func LineCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Lines)
	}
	return n
}

// Header contains the flight-level fields shared by every record of a document.
type Header struct {
	Origin   string `json:"origin"`
	FlightNo string `json:"flight_no"`
}

// DefaultHeader returns a header with both fields set to Unknown.
func DefaultHeader() Header {
	return Header{Origin: Unknown, FlightNo: Unknown}
}

// ShipmentItem is one air waybill line loaded in a container.
type ShipmentItem struct {
	AWB    string          `json:"awb"`
	Pieces int             `json:"pieces"`
	Weight decimal.Decimal `json:"weight"`
}

// ContainerRecord is a unit load device and the shipments loaded in it.
type ContainerRecord struct {
	ID    string         `json:"container_id"`
	Items []ShipmentItem `json:"items"`
}

// TotalPieces returns the sum of item piece counts.
func (c ContainerRecord) TotalPieces() int {
	total := 0
	for _, it := range c.Items {
		total += it.Pieces
	}
	return total
}

// TotalWeight returns the sum of item weights.
func (c ContainerRecord) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Weight)
	}
	return total
}

// AWBs returns the item air waybill numbers in load order.
func (c ContainerRecord) AWBs() []string {
	out := make([]string, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.AWB
	}
	return out
}

// Document is one parsed manifest.
type Document struct {
	ID       string            `json:"id"`
	Source   string            `json:"source,omitempty"`
	ParsedAt time.Time         `json:"parsed_at"`
	Pages    int               `json:"pages"`
	Lines    int               `json:"lines"`
	Header   Header            `json:"header"`
	Records  []ContainerRecord `json:"records"`
}

// NewDocument creates an empty document with a fresh id.
func NewDocument(source string) *Document {
	return &Document{
		ID:       uuid.NewString(),
		Source:   source,
		ParsedAt: time.Now().UTC(),
		Header:   DefaultHeader(),
	}
}

// Empty reports whether no container was recovered from the document.
func (d *Document) Empty() bool {
	return len(d.Records) == 0
}

// FormatWeight renders a weight with one fractional digit and a comma decimal mark.
func FormatWeight(w decimal.Decimal) string {
	return strings.Replace(w.StringFixed(1), ".", ",", 1)
}
