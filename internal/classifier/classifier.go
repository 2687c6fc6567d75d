// Package classifier decides what a manifest text line is: a container id, a
// shipment record or noise.
//
// Classification is a pure function of an immutable line slice and a cursor:
// Classify(lines, i) returns a Token and the number of lines it consumed.
// Rules are checked in a fixed priority order; the first rule that accepts
// the line wins.
package classifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"manifest_parser/internal/manifest"
	"manifest_parser/internal/patterns"
)

var (
	// ErrMalformedPieces is returned when the piece field of a shipment is not numeric.
	ErrMalformedPieces = errors.New("malformed pieces")
	// ErrMalformedWeight is returned when the weight field of a shipment is not numeric.
	ErrMalformedWeight = errors.New("malformed weight")
	// ErrUnknownVariant is returned by ParseVariant.
	ErrUnknownVariant = errors.New("unknown classifier variant")
)

// Kind is the classification of a line.
type Kind int

const (
	Unrecognized Kind = iota
	Container
	Shipment
)

func (k Kind) String() string {
	switch k {
	case Container:
		return "container"
	case Shipment:
		return "shipment"
	default:
		return "unrecognized"
	}
}

// Token is the outcome of classifying the line at a cursor.
type Token struct {
	Kind Kind
	Rule string // Name of the rule that produced the token, empty for Unrecognized.

	ContainerID string                // Set for Container.
	Item        manifest.ShipmentItem // Set for Shipment.

	// Consumed is the number of lines covered by the token. Always >= 1.
	Consumed int

	// Err records why a candidate shipment was rejected, if one was.
	Err error
}

// Variant selects between the strict and loose line grammars.
type Variant int

const (
	// VariantLoose accepts any line starting with a container prefix and
	// single-line shipment records.
	VariantLoose Variant = iota
	// VariantStrict requires the container id to be the whole line and only
	// accepts three-line shipment records.
	VariantStrict
)

func (v Variant) String() string {
	if v == VariantStrict {
		return "strict"
	}
	return "loose"
}

// ParseVariant parses "loose" or "strict". Empty means loose.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loose":
		return VariantLoose, nil
	case "strict":
		return VariantStrict, nil
	}
	return VariantLoose, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Rule is implemented by each line rule.
type Rule interface {
	// Name returns the rule's unique identifier.
	Name() string

	// Priority determines check order. Lower number = checked first.
	Priority() int

	// QuickCheck performs a fast string check on the cursor line before
	// any regex work. False means the rule definitely does not apply.
	QuickCheck(line string) bool

	// Classify attempts to classify lines[i]. ok is false when the rule does
	// not apply; the returned token may still carry a rejection error.
	Classify(lines []string, i int) (tok Token, ok bool)
}

// Classifier holds rules sorted by priority.
type Classifier struct {
	variant Variant
	rules   []Rule
}

// New returns the classifier for a variant.
func New(v Variant) *Classifier {
	rules := []Rule{&containerRule{strict: v == VariantStrict}, &tripleRule{}}
	if v == VariantLoose {
		rules = append(rules, &inlineRule{})
	}
	return NewWithRules(v, rules...)
}

// NewWithRules builds a classifier from an explicit rule set.
func NewWithRules(v Variant, rules ...Rule) *Classifier {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Classifier{variant: v, rules: sorted}
}

// Variant returns the grammar variant of the classifier.
func (c *Classifier) Variant() Variant { return c.variant }

// Rules returns the rules in check order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify classifies lines[i]. Lines after i are lookahead for multi-line
// records. An index outside the slice yields an Unrecognized token.
func (c *Classifier) Classify(lines []string, i int) Token {
	unrecognized := Token{Kind: Unrecognized, Consumed: 1}
	if i < 0 || i >= len(lines) {
		return unrecognized
	}

	line := strings.TrimSpace(lines[i])
	for _, r := range c.rules {
		if !r.QuickCheck(line) {
			continue
		}
		tok, ok := r.Classify(lines, i)
		if ok {
			return tok
		}
		if tok.Err != nil {
			unrecognized.Err = tok.Err
		}
	}
	return unrecognized
}

// ParseTriple builds a shipment from its three fields. Piece and weight
// failures are reported as ErrMalformedPieces and ErrMalformedWeight.
func ParseTriple(awb, pieces, weight string) (manifest.ShipmentItem, error) {
	n, err := patterns.ParsePieces(pieces)
	if err != nil {
		return manifest.ShipmentItem{}, fmt.Errorf("%w: %w", ErrMalformedPieces, err)
	}
	w, err := patterns.ParseWeight(weight)
	if err != nil {
		return manifest.ShipmentItem{}, fmt.Errorf("%w: %w", ErrMalformedWeight, err)
	}
	return manifest.ShipmentItem{AWB: awb, Pieces: n, Weight: w}, nil
}

// lineAt returns the trimmed line at i, or "" when out of range.
func lineAt(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[i])
}
