package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Render writes the report in the given format.
func Render(w io.Writer, f Format, rep Report) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, rep)
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatJSON:
		return WriteJSON(w, rep)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// WriteCSV writes the table rows. Multi-AWB cells keep their embedded
// newlines and are quoted.
func WriteCSV(w io.Writer, rep Report) error {
	sw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	for _, rec := range rep.Layout.Records(rep.Table) {
		if err := sw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// statRow is one line of the stats CSV.
type statRow struct {
	Range      string `csv:"Piece range"`
	Containers int    `csv:"Containers"`
}

// WriteStatsCSV writes the two-column bin table.
func WriteStatsCSV(w io.Writer, rep Report) error {
	rows := make([]*statRow, len(rep.Stats))
	for i, c := range rep.Stats {
		rows[i] = &statRow{Range: c.Label, Containers: c.Count}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write stats csv: %w", err)
	}
	return nil
}

// jsonReport is the wire form of a rendered report.
type jsonReport struct {
	Source  string              `json:"source,omitempty"`
	Layout  string              `json:"layout"`
	Header  any                 `json:"header"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Totals  any                 `json:"totals"`
	Stats   any                 `json:"stats"`
}

// WriteJSON writes the report as an indented JSON document.
func WriteJSON(w io.Writer, rep Report) error {
	out := jsonReport{
		Source:  rep.Source,
		Layout:  rep.Layout.Name,
		Header:  rep.Table.Header,
		Columns: rep.Layout.Columns,
		Rows:    make([]map[string]string, 0, len(rep.Table.Rows)),
		Totals:  rep.Totals,
		Stats:   rep.Stats,
	}
	for _, r := range rep.Table.Rows {
		m := make(map[string]string, len(rep.Layout.Columns))
		for _, c := range rep.Layout.Columns {
			m[c] = r.Cell(c)
		}
		out.Rows = append(out.Rows, m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
