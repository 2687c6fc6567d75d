// Package extractor runs the full manifest pipeline: header lookup, record
// assembly, table build, filter, sort and piece statistics.
// It is storage-agnostic; callers archive or publish the Result as needed.
package extractor

import (
	"fmt"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/assembler"
	"manifest_parser/internal/header"
	"manifest_parser/internal/manifest"
	"manifest_parser/internal/pdftext"
	"manifest_parser/internal/stats"
)

// Options configures a pipeline run.
type Options struct {
	Parse        assembler.Options
	HeaderPages  int
	SortByPieces bool
	Filter       aggregate.Filter
	ExtractMode  pdftext.Mode
}

// Result is the outcome of one document.
type Result struct {
	Document *manifest.Document `json:"document"`
	Table    manifest.Table     `json:"table"`
	Totals   aggregate.Totals   `json:"totals"`
	Stats    stats.Histogram    `json:"stats"`
	Filtered bool               `json:"filtered"`
}

// Empty reports whether the final table has no rows. An empty result is a
// valid outcome: the document had no containers, or the filter matched none.
func (r *Result) Empty() bool {
	return len(r.Table.Rows) == 0
}

// Unreadable reports whether the document yielded no lines at all.
func (r *Result) Unreadable() bool {
	return r.Document.Lines == 0
}

// Run processes an already extracted line stream.
func Run(source string, pages []manifest.Page, opts Options) *Result {
	doc := manifest.NewDocument(source)
	doc.Pages = len(pages)
	doc.Lines = manifest.LineCount(pages)
	doc.Header = header.Extract(pages, opts.HeaderPages)
	doc.Records = assembler.Parse(pages, opts.Parse)

	return FromDocument(doc, opts)
}

// FromDocument builds the table view of an assembled document.
func FromDocument(doc *manifest.Document, opts Options) *Result {
	table := aggregate.BuildTable(doc.Header, doc.Records)
	table = opts.Filter.Apply(table)
	if opts.SortByPieces {
		table = aggregate.SortByPieces(table)
	}

	return &Result{
		Document: doc,
		Table:    table,
		Totals:   aggregate.Summarise(table),
		Stats:    stats.Compute(table.Pieces()),
		Filtered: !opts.Filter.Empty(),
	}
}

// RunPDF extracts the line stream of a PDF and processes it.
func RunPDF(source string, content []byte, opts Options) (*Result, error) {
	pages, err := pdftext.Extract(content, opts.ExtractMode)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}
	return Run(source, pages, opts), nil
}

// RunFile reads and processes a PDF file.
func RunFile(path string, opts Options) (*Result, error) {
	pages, err := pdftext.ExtractFile(path, opts.ExtractMode)
	if err != nil {
		return nil, err
	}
	return Run(path, pages, opts), nil
}
