package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names of the output table, in order.
const (
	ColOrigin       = "Origin"
	ColFlightNo     = "FlightNo"
	ColContainerID  = "ContainerID"
	ColTotalWeight  = "TotalWeightKg"
	ColTotalPieces  = "TotalPieces"
	ColAWBList      = "AwbList"
	ColPiecesPerAWB = "PiecesPerAwb"
	ColWeightPerAWB = "WeightPerAwb"
	ColAWBCount     = "AwbCount"

	// Derived columns added by report layouts.
	ColLocation  = "Location"
	ColAWBTotals = "Total AWB"
)

// Columns is the output table schema.
var Columns = []string{
	ColOrigin, ColFlightNo, ColContainerID, ColTotalWeight, ColTotalPieces,
	ColAWBList, ColPiecesPerAWB, ColWeightPerAWB, ColAWBCount,
}

// Row is one container line of the output table.
type Row struct {
	Origin       string
	FlightNo     string
	ContainerID  string
	TotalWeight  decimal.Decimal
	TotalPieces  int
	AWBs         []string
	PiecesPerAWB []int
	WeightPerAWB []decimal.Decimal

	// AWBTotals holds, for each entry of AWBs, the piece total of that AWB
	// across the whole document.
	AWBTotals []int
}

// AWBCount returns the number of shipments in the row.
func (r Row) AWBCount() int { return len(r.AWBs) }

// TotalWeightKg returns the display form of the total weight.
func (r Row) TotalWeightKg() string { return FormatWeight(r.TotalWeight) }

// AWBList returns the newline-joined AWB numbers.
func (r Row) AWBList() string { return strings.Join(r.AWBs, "\n") }

// PiecesList returns the newline-joined per-AWB piece counts.
func (r Row) PiecesList() string { return joinInts(r.PiecesPerAWB) }

// AWBTotalsList returns the newline-joined document-wide AWB piece totals.
func (r Row) AWBTotalsList() string { return joinInts(r.AWBTotals) }

// WeightList returns the newline-joined per-AWB weights in display form.
func (r Row) WeightList() string {
	parts := make([]string, len(r.WeightPerAWB))
	for i, w := range r.WeightPerAWB {
		parts[i] = FormatWeight(w)
	}
	return strings.Join(parts, "\n")
}

// Cell returns the display value of a named column. Unknown columns are blank.
func (r Row) Cell(column string) string {
	switch column {
	case ColOrigin:
		return r.Origin
	case ColFlightNo:
		return r.FlightNo
	case ColContainerID:
		return r.ContainerID
	case ColTotalWeight:
		return r.TotalWeightKg()
	case ColTotalPieces:
		return strconv.Itoa(r.TotalPieces)
	case ColAWBList:
		return r.AWBList()
	case ColPiecesPerAWB:
		return r.PiecesList()
	case ColWeightPerAWB:
		return r.WeightList()
	case ColAWBCount:
		return strconv.Itoa(r.AWBCount())
	case ColAWBTotals:
		return r.AWBTotalsList()
	}
	return ""
}

// rowJSON is the wire form of a Row.
type rowJSON struct {
	Origin        string   `json:"origin"`
	FlightNo      string   `json:"flight_no"`
	ContainerID   string   `json:"container_id"`
	TotalWeightKg string   `json:"total_weight_kg"`
	TotalPieces   int      `json:"total_pieces"`
	AWBs          []string `json:"awbs"`
	PiecesPerAWB  []int    `json:"pieces_per_awb"`
	WeightPerAWB  []string `json:"weight_per_awb"`
	AWBTotals     []int    `json:"awb_totals,omitempty"`
	AWBCount      int      `json:"awb_count"`
}

// MarshalJSON encodes the row with display-form weights.
func (r Row) MarshalJSON() ([]byte, error) {
	weights := make([]string, len(r.WeightPerAWB))
	for i, w := range r.WeightPerAWB {
		weights[i] = FormatWeight(w)
	}
	awbs := r.AWBs
	if awbs == nil {
		awbs = []string{}
	}
	pieces := r.PiecesPerAWB
	if pieces == nil {
		pieces = []int{}
	}
	return json.Marshal(rowJSON{
		Origin:        r.Origin,
		FlightNo:      r.FlightNo,
		ContainerID:   r.ContainerID,
		TotalWeightKg: r.TotalWeightKg(),
		TotalPieces:   r.TotalPieces,
		AWBs:          awbs,
		PiecesPerAWB:  pieces,
		WeightPerAWB:  weights,
		AWBTotals:     r.AWBTotals,
		AWBCount:      r.AWBCount(),
	})
}

// UnmarshalJSON decodes the wire form written by MarshalJSON.
func (r *Row) UnmarshalJSON(b []byte) error {
	var w rowJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	total, err := parseDisplayWeight(w.TotalWeightKg)
	if err != nil {
		return err
	}
	weights := make([]decimal.Decimal, len(w.WeightPerAWB))
	for i, s := range w.WeightPerAWB {
		if weights[i], err = parseDisplayWeight(s); err != nil {
			return err
		}
	}
	*r = Row{
		Origin:       w.Origin,
		FlightNo:     w.FlightNo,
		ContainerID:  w.ContainerID,
		TotalWeight:  total,
		TotalPieces:  w.TotalPieces,
		AWBs:         w.AWBs,
		PiecesPerAWB: w.PiecesPerAWB,
		WeightPerAWB: weights,
		AWBTotals:    w.AWBTotals,
	}
	return nil
}

func parseDisplayWeight(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("weight %q: %w", s, err)
	}
	return d, nil
}

// Table is the assembled output of one document.
type Table struct {
	Header Header `json:"header"`
	Rows   []Row  `json:"rows"`
}

// ContainerIDs returns the container column in row order.
func (t Table) ContainerIDs() []string {
	ids := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		ids[i] = r.ContainerID
	}
	return ids
}

// Pieces returns the total-pieces column in row order.
func (t Table) Pieces() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.TotalPieces
	}
	return out
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "\n")
}
