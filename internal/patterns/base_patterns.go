// Package patterns provides shared regex patterns and helper functions for manifest parsing.
// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern composition.
// These are referenced in format patterns using {PATTERN_NAME} syntax.
var BasePatterns = map[string]string{
	// Unit load devices.
	// IATA equipment type prefixes seen on manifests. BULK is handled separately.
	"ULD_PREFIX": `(?:PMC|PAG|PGE|PLA|AKE|AKN|AKH)`,
	"BULK":       `BULK`,

	// The serial carries at least one digit, so words such as PAGE or
	// PLANNED never read as containers.
	"ULD_BODY": `[A-Z0-9]*\d[A-Z0-9]*`,

	// Air waybill: 3-digit airline prefix, dash, 8-digit serial.
	"AWB": `\d{3}-\d{8}`,

	// Piece counts, optionally split ("4/10" = 4 of 10 loaded here).
	"PIECES":    `\d+`,
	"PIECES_OF": `/\d+`,

	// Weights in kg, comma or dot decimal separator, optional grouping.
	"WEIGHT": `\d[\d.,]*`,

	// Header values.
	"FLIGHT_ID": `[A-Z0-9]+`,
}
