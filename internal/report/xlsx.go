package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"manifest_parser/internal/manifest"
)

// Sheet names of the workbook.
const (
	SheetManifest = "Manifest"
	SheetStats    = "Stats"
)

// Colours of the table. Data rows alternate white and StripeColour, starting
// with white.
const (
	HeaderColour = "#D3D3D3"
	StripeColour = "#C0C0C0"
	gridColour   = "#808080"
)

// excelA4 is the excelize paper size code for A4.
const excelA4 = 9

var columnWidths = map[string]float64{
	manifest.ColContainerID:  14,
	manifest.ColAWBList:      16,
	manifest.ColLocation:     12,
	manifest.ColPiecesPerAWB: 10,
	manifest.ColAWBTotals:    10,
	manifest.ColWeightPerAWB: 12,
	manifest.ColTotalPieces:  10,
	manifest.ColTotalWeight:  12,
}

// styles holds the workbook style ids.
type styles struct {
	header int
	plain  int
	stripe int
}

func newStyles(f *excelize.File) (styles, error) {
	grid := []excelize.Border{
		{Type: "left", Color: gridColour, Style: 1},
		{Type: "right", Color: gridColour, Style: 1},
		{Type: "top", Color: gridColour, Style: 1},
		{Type: "bottom", Color: gridColour, Style: 1},
	}
	align := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	var s styles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 9},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{HeaderColour}, Pattern: 1},
		Border:    grid,
		Alignment: align,
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	s.plain, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8},
		Border:    grid,
		Alignment: align,
	})
	if err != nil {
		return s, fmt.Errorf("row style: %w", err)
	}
	s.stripe, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{StripeColour}, Pattern: 1},
		Border:    grid,
		Alignment: align,
	})
	if err != nil {
		return s, fmt.Errorf("stripe style: %w", err)
	}
	return s, nil
}

// WriteXLSX writes a workbook with the table on the first sheet and the
// piece statistics on a second sheet.
func WriteXLSX(w io.Writer, rep Report) error {
	f, err := BuildWorkbook(rep)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// BuildWorkbook renders the report into a new workbook. Callers must Close it.
func BuildWorkbook(rep Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetManifest); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeTable(f, SheetManifest, st, rep.Layout.Columns, tableValues(rep)); err != nil {
		f.Close()
		return nil, err
	}
	for i, c := range rep.Layout.Columns {
		width, ok := columnWidths[c]
		if !ok {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(SheetManifest, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	if _, err := f.NewSheet(SheetStats); err != nil {
		f.Close()
		return nil, fmt.Errorf("stats sheet: %w", err)
	}
	statRows := make([][]any, len(rep.Stats))
	for i, c := range rep.Stats {
		statRows[i] = []any{c.Label, c.Count}
	}
	if err := writeTable(f, SheetStats, st, []string{"Piece range", "Containers"}, statRows); err != nil {
		f.Close()
		return nil, err
	}

	size := excelA4
	for _, sheet := range []string{SheetManifest, SheetStats} {
		if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{Size: &size}); err != nil {
			f.Close()
			return nil, fmt.Errorf("page layout: %w", err)
		}
	}

	return f, nil
}

func tableValues(rep Report) [][]any {
	rows := make([][]any, len(rep.Table.Rows))
	for i, r := range rep.Table.Rows {
		rows[i] = rep.Layout.Values(r)
	}
	return rows
}

// writeTable writes a header row and striped data rows starting at A1.
func writeTable(f *excelize.File, sheet string, st styles, header []string, rows [][]any) error {
	if len(header) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", st.header); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		n := i + 2
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, n, err)
		}
		style := st.plain
		if (i+1)%2 == 0 {
			style = st.stripe
		}
		if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", last, n), style); err != nil {
			return fmt.Errorf("%s row %d style: %w", sheet, n, err)
		}
	}
	return nil
}
