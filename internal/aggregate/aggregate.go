// Package aggregate turns container records into the output table and
// computes document-wide totals.
package aggregate

import (
	"bufio"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"manifest_parser/internal/manifest"
)

// Totals are the grand totals of a table.
type Totals struct {
	Containers      int             `json:"containers"`
	AWBs            int             `json:"awbs"`
	Pieces          int             `json:"pieces"`
	Weight          decimal.Decimal `json:"-"`
	WeightKg        string          `json:"weight_kg"`
	EmptyContainers int             `json:"empty_containers"`
}

// AWBTotals sums piece counts per AWB across all records. An AWB listed in
// more than one container is additive.
func AWBTotals(records []manifest.ContainerRecord) map[string]int {
	totals := make(map[string]int)
	for _, r := range records {
		for _, it := range r.Items {
			totals[it.AWB] += it.Pieces
		}
	}
	return totals
}

// BuildTable builds one row per record, in record order.
func BuildTable(h manifest.Header, records []manifest.ContainerRecord) manifest.Table {
	awbTotals := AWBTotals(records)

	rows := make([]manifest.Row, 0, len(records))
	for _, r := range records {
		row := manifest.Row{
			Origin:       h.Origin,
			FlightNo:     h.FlightNo,
			ContainerID:  r.ID,
			TotalWeight:  r.TotalWeight(),
			TotalPieces:  r.TotalPieces(),
			AWBs:         make([]string, len(r.Items)),
			PiecesPerAWB: make([]int, len(r.Items)),
			WeightPerAWB: make([]decimal.Decimal, len(r.Items)),
			AWBTotals:    make([]int, len(r.Items)),
		}
		for i, it := range r.Items {
			row.AWBs[i] = it.AWB
			row.PiecesPerAWB[i] = it.Pieces
			row.WeightPerAWB[i] = it.Weight
			row.AWBTotals[i] = awbTotals[it.AWB]
		}
		rows = append(rows, row)
	}

	return manifest.Table{Header: h, Rows: rows}
}

// Summarise computes the grand totals of a table.
func Summarise(t manifest.Table) Totals {
	tot := Totals{Containers: len(t.Rows), Weight: decimal.Zero}
	for _, r := range t.Rows {
		tot.Pieces += r.TotalPieces
		tot.Weight = tot.Weight.Add(r.TotalWeight)
		tot.AWBs += r.AWBCount()
		if r.AWBCount() == 0 {
			tot.EmptyContainers++
		}
	}
	tot.WeightKg = manifest.FormatWeight(tot.Weight)
	return tot
}

// Filter is a set of container ids. The zero value keeps every row.
type Filter map[string]struct{}

// ParseFilter reads one container id per line. Lines are trimmed and blank
// lines are ignored. Ids are otherwise compared exactly.
func ParseFilter(text string) Filter {
	f := Filter{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			f[id] = struct{}{}
		}
	}
	return f
}

// NewFilter builds a filter from ids.
func NewFilter(ids ...string) Filter {
	f := Filter{}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			f[id] = struct{}{}
		}
	}
	return f
}

// Empty reports whether the filter keeps every row.
func (f Filter) Empty() bool { return len(f) == 0 }

// Contains reports whether id is in the filter.
func (f Filter) Contains(id string) bool {
	_, ok := f[id]
	return ok
}

// IDs returns the filter ids sorted.
func (f Filter) IDs() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply keeps the rows whose container id is in the filter, in order.
// An empty filter returns the table unchanged. A container id that the
// document opens twice has two rows, and both are kept with their own items.
func (f Filter) Apply(t manifest.Table) manifest.Table {
	if f.Empty() {
		return t
	}
	rows := make([]manifest.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if f.Contains(r.ContainerID) {
			rows = append(rows, r)
		}
	}
	return manifest.Table{Header: t.Header, Rows: rows}
}

// SortByPieces sorts rows ascending by total pieces. Rows with equal totals
// keep their encounter order; container id is not used as a tiebreak.
func SortByPieces(t manifest.Table) manifest.Table {
	rows := make([]manifest.Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPieces < rows[j].TotalPieces
	})
	return manifest.Table{Header: t.Header, Rows: rows}
}
