// Package pdftext turns a PDF document into per-page line streams.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"manifest_parser/internal/manifest"
)

var (
	// ErrEmptyContent is returned for a zero-length document.
	ErrEmptyContent = errors.New("empty PDF content")
	// ErrOpen is returned when the content cannot be read as a PDF.
	ErrOpen = errors.New("open pdf")
	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("unknown extract mode")
)

// Mode selects how page text is split into lines.
type Mode string

const (
	// ModeFragments emits every text block as its own line, in content
	// order. Cells of a table row become separate lines.
	ModeFragments Mode = "fragments"
	// ModeRows joins the text runs sharing a baseline into one line.
	ModeRows Mode = "rows"
	// ModePlain splits the page's plain text on newlines.
	ModePlain Mode = "plain"
)

// ParseMode parses an extract mode name. Empty means ModeFragments.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFragments, nil
	case ModeRows, ModeFragments, ModePlain:
		return m, nil
	}
	return ModeFragments, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ExtractFile reads a PDF from disk.
func ExtractFile(path string, mode Mode) ([]manifest.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Extract(content, mode)
}

// Extract returns the line stream of every page, in page order. Pages with
// no text, or whose content stream cannot be decoded, yield no lines.
func Extract(content []byte, mode Mode) (pages []manifest.Page, err error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrOpen, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	n := r.NumPage()
	pages = make([]manifest.Page, 0, n)
	for i := 1; i <= n; i++ {
		page := manifest.Page{Number: i}
		if p := r.Page(i); !p.V.IsNull() {
			page.Lines = pageLines(p, mode)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// pageLines extracts one page. A page that fails to decode yields nil.
func pageLines(p pdf.Page, mode Mode) (lines []string) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	switch mode {
	case ModeRows:
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil
		}
		return rowLines(rows)
	case ModePlain:
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil
		}
		return SplitLines(text)
	default:
		return fragmentLines(p.Content().Text)
	}
}

// rowLines joins each row's words left to right.
func rowLines(rows pdf.Rows) []string {
	var lines []string
	for _, row := range rows {
		words := make([]pdf.Text, len(row.Content))
		copy(words, row.Content)
		sort.SliceStable(words, func(i, j int) bool { return words[i].X < words[j].X })

		var parts []string
		for _, w := range words {
			if s := strings.TrimSpace(w.S); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines
}

// Horizontal gaps, in points, between the end of one glyph run and the start
// of the next on the same baseline.
const (
	minColumnGap = 6.0
	minWordGap   = 1.0
)

// fragmentLines merges consecutive glyph runs into fragments and emits each
// fragment's lines. A run starts a new fragment when it leaves the baseline,
// moves left, or sits further right than the previous run's end plus the
// larger of its font size and minColumnGap. Smaller gaps read as word spacing.
func fragmentLines(texts []pdf.Text) []string {
	var (
		lines []string
		cur   strings.Builder
		last  pdf.Text
	)
	flush := func() {
		lines = append(lines, SplitLines(cur.String())...)
		cur.Reset()
	}

	for i, t := range texts {
		if i > 0 {
			gap := t.X - (last.X + last.W)
			switch {
			case t.Y != last.Y || t.X < last.X || gap > max(last.FontSize, minColumnGap):
				flush()
			case gap > max(last.FontSize/5, minWordGap) && !strings.HasSuffix(last.S, " ") && !strings.HasPrefix(t.S, " "):
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		last = t
	}
	flush()
	return lines
}

// SplitLines splits text on newlines, trims every line and drops blank ones.
func SplitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
