// Package patterns provides shared regex patterns and helper functions for manifest parsing.
package patterns

import (
	"strings"
)

// Format names understood by Lines.
const (
	FormatContainerStrict = "container_strict"
	FormatContainerLoose  = "container_loose"
	FormatAWB             = "awb"
	FormatPieces          = "pieces"
	FormatWeight          = "weight"
	FormatInline          = "inline"
	FormatFlightID        = "flight_id"
)

// Lines holds the compiled single-line formats used by the classifier and
// the header extractor. All formats are anchored.
var Lines = NewCompiler([]Format{
	// PMC12345AF, AKE98765LH, BULK. The whole line must be the id.
	{Name: FormatContainerStrict, Pattern: `^(?P<id>{ULD_PREFIX}{ULD_BODY}|{BULK})$`},
	// PMC12345AF 3/4 CDG ... The id is the first whitespace-delimited token.
	{Name: FormatContainerLoose, Pattern: `^(?P<id>{ULD_PREFIX}{ULD_BODY}|{BULK})(?:\s|$)`},
	// 057-12345675
	{Name: FormatAWB, Pattern: `^(?P<awb>{AWB})$`},
	// 4 or 4/10
	{Name: FormatPieces, Pattern: `^(?P<pieces>{PIECES})(?:{PIECES_OF})?$`},
	// 120,5 or 1.234,5 or 1234.5
	{Name: FormatWeight, Pattern: `^(?P<weight>{WEIGHT})$`},
	// 057-12345675 4/10 120,5 [trailing columns]
	{Name: FormatInline, Pattern: `^(?P<awb>{AWB})\s+(?P<pieces>{PIECES})(?:{PIECES_OF})?\s+(?P<weight>{WEIGHT})(?:\s+.*)?$`},
	// AF1234/16OCT
	{Name: FormatFlightID, Pattern: `^(?P<flight>{FLIGHT_ID})`},
}, nil).MustCompile()

// ContainerPrefixes lists the line prefixes that open a container record.
// Kept in step with the ULD_PREFIX and BULK base patterns.
var ContainerPrefixes = []string{"PMC", "PAG", "PGE", "PLA", "AKE", "AKN", "AKH", "BULK"}

// HasContainerPrefix reports whether line starts with a container prefix.
// Cheap pre-check before any regex work.
func HasContainerPrefix(line string) bool {
	for _, p := range ContainerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// LooksLikeAWB is a cheap shape check for an air waybill number at the start of line.
func LooksLikeAWB(line string) bool {
	if len(line) < 12 || line[3] != '-' {
		return false
	}
	for i := 0; i < 12; i++ {
		if i == 3 {
			continue
		}
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}

// FirstToken returns the first whitespace-delimited token of s.
func FirstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
