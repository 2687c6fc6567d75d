// Package header extracts the flight-level fields printed at the top of a
// cargo manifest.
package header

import (
	"strings"

	"manifest_parser/internal/manifest"
	"manifest_parser/internal/patterns"
)

// Labels printed by the manifest layout. The value sits on the line before.
const (
	LabelOrigin = "Point of Loading:"
	LabelFlight = "Flight No./Date:"
)

// DefaultPages is the number of leading pages scanned for header labels.
const DefaultPages = 3

// Lines returns the lines of the first n pages, concatenated in order.
// n <= 0 means DefaultPages.
func Lines(pages []manifest.Page, n int) []string {
	if n <= 0 {
		n = DefaultPages
	}
	if n > len(pages) {
		n = len(pages)
	}
	var lines []string
	for _, p := range pages[:n] {
		lines = append(lines, p.Lines...)
	}
	return lines
}

// Extract scans the first n pages for the header labels.
// It never fails: missing fields keep manifest.Unknown.
func Extract(pages []manifest.Page, n int) manifest.Header {
	return FromLines(Lines(pages, n))
}

// FromLines runs the label-anchored backward lookup over a line slice.
// A label may appear more than once; the last occurrence wins.
func FromLines(lines []string) manifest.Header {
	h := manifest.DefaultHeader()

	for i, line := range lines {
		if i == 0 {
			continue
		}
		prev := strings.TrimSpace(lines[i-1])
		if prev == "" {
			continue
		}

		if strings.Contains(line, LabelOrigin) {
			h.Origin = prev
		}
		if strings.Contains(line, LabelFlight) {
			if m := patterns.Lines.ParseFormat(patterns.FormatFlightID, prev); m != nil {
				h.FlightNo = m.Captures["flight"]
			}
		}
	}

	return h
}
