// Package report renders a manifest table as a spreadsheet, CSV or JSON
// document.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/manifest"
	"manifest_parser/internal/stats"
)

var (
	// ErrUnknownLayout is returned by ParseLayout.
	ErrUnknownLayout = errors.New("unknown report layout")
	// ErrUnknownFormat is returned by ParseFormat.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Layout is an ordered column selection.
type Layout struct {
	Name    string
	Columns []string
}

// LayoutFull is the output table schema as is.
var LayoutFull = Layout{Name: "full", Columns: manifest.Columns}

// LayoutPrint is the loading-team sheet: flight-level and weight totals are
// dropped, a blank Location column and the document-wide AWB totals are added,
// and the container piece total comes last.
var LayoutPrint = Layout{
	Name: "print",
	Columns: []string{
		manifest.ColContainerID,
		manifest.ColAWBList,
		manifest.ColLocation,
		manifest.ColPiecesPerAWB,
		manifest.ColAWBTotals,
		manifest.ColWeightPerAWB,
		manifest.ColTotalPieces,
	},
}

// ParseLayout returns the layout with the given name. Empty means print.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", LayoutPrint.Name:
		return LayoutPrint, nil
	case LayoutFull.Name:
		return LayoutFull, nil
	}
	return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// Cells returns the display values of a row in layout order.
func (l Layout) Cells(r manifest.Row) []string {
	out := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = r.Cell(c)
	}
	return out
}

// Values is like Cells but keeps integer columns numeric.
func (l Layout) Values(r manifest.Row) []any {
	out := make([]any, len(l.Columns))
	for i, c := range l.Columns {
		switch c {
		case manifest.ColTotalPieces:
			out[i] = r.TotalPieces
		case manifest.ColAWBCount:
			out[i] = r.AWBCount()
		default:
			out[i] = r.Cell(c)
		}
	}
	return out
}

// Records returns the header row followed by one record per table row.
func (l Layout) Records(t manifest.Table) [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), l.Columns...))
	for _, r := range t.Rows {
		records = append(records, l.Cells(r))
	}
	return records
}

// Report is everything a renderer needs.
type Report struct {
	Source string
	Layout Layout
	Table  manifest.Table
	Totals aggregate.Totals
	Stats  stats.Histogram
}

// New builds a report with totals and stats computed from the table.
func New(source string, layout Layout, t manifest.Table) Report {
	return Report{
		Source: source,
		Layout: layout,
		Table:  t,
		Totals: aggregate.Summarise(t),
		Stats:  stats.Compute(t.Pieces()),
	}
}

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// FileName returns the report file name for a source document:
// "manifest.pdf" becomes "manifest_RESUME.xlsx".
func FileName(source string, f Format) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "manifest"
	}
	return base + "_RESUME." + string(f)
}
