// Package assembler folds classified manifest lines into container records.
//
// The assembler is an explicit state machine. State is a value: Step returns
// the next state and never mutates its receiver, so a parse is a pure
// function of its input pages.
package assembler

import (
	"errors"
	"fmt"
	"strings"

	"manifest_parser/internal/classifier"
	"manifest_parser/internal/manifest"
)

// ErrUnknownFlushPolicy is returned by ParseFlushPolicy.
var ErrUnknownFlushPolicy = errors.New("unknown flush policy")

// FlushPolicy decides whether an open container with no shipments is kept.
type FlushPolicy int

const (
	// FlushAlways emits one record per recognised container id, with zero
	// totals when it has no shipments.
	FlushAlways FlushPolicy = iota
	// FlushNonEmpty drops containers that collected no shipments.
	FlushNonEmpty
)

func (p FlushPolicy) String() string {
	if p == FlushNonEmpty {
		return "non-empty"
	}
	return "always"
}

// ParseFlushPolicy parses "always" or "non-empty". Empty means always.
func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return FlushAlways, nil
	case "non-empty", "nonempty", "non_empty":
		return FlushNonEmpty, nil
	}
	return FlushAlways, fmt.Errorf("%w: %q", ErrUnknownFlushPolicy, s)
}

// Options configures a parse.
type Options struct {
	Variant classifier.Variant
	Flush   FlushPolicy
}

// State is the assembler state between two tokens.
type State struct {
	open      bool
	container string
	items     []manifest.ShipmentItem
	completed []manifest.ContainerRecord

	// Discarded counts shipments seen before any container was opened.
	Discarded int
}

// Open returns the id of the open container, if any.
func (s State) Open() (string, bool) {
	return s.container, s.open
}

// Completed returns the flushed records so far.
func (s State) Completed() []manifest.ContainerRecord {
	return s.completed
}

// Step folds one token into the state.
func (s State) Step(tok classifier.Token, policy FlushPolicy) State {
	switch tok.Kind {
	case classifier.Container:
		next := s.Flush(policy)
		next.open = true
		next.container = tok.ContainerID
		next.items = nil
		return next

	case classifier.Shipment:
		if !s.open {
			s.Discarded++
			return s
		}
		items := make([]manifest.ShipmentItem, len(s.items), len(s.items)+1)
		copy(items, s.items)
		s.items = append(items, tok.Item)
		return s
	}
	return s
}

// Flush closes the open container, if any, and appends its record according
// to policy.
func (s State) Flush(policy FlushPolicy) State {
	if !s.open {
		return s
	}
	if len(s.items) > 0 || policy == FlushAlways {
		completed := make([]manifest.ContainerRecord, len(s.completed), len(s.completed)+1)
		copy(completed, s.completed)
		s.completed = append(completed, manifest.ContainerRecord{
			ID:    s.container,
			Items: s.items,
		})
	}
	s.open = false
	s.container = ""
	s.items = nil
	return s
}

// Parser assembles container records from pages of lines.
type Parser struct {
	opts       Options
	classifier *classifier.Classifier
}

// New creates a parser.
func New(opts Options) *Parser {
	return &Parser{opts: opts, classifier: classifier.New(opts.Variant)}
}

// Options returns the parser configuration.
func (p *Parser) Options() Options { return p.opts }

// Parse runs the classifier over every page and folds the tokens.
// Lookahead never crosses a page boundary; the open container does.
func (p *Parser) Parse(pages []manifest.Page) []manifest.ContainerRecord {
	var s State
	for _, page := range pages {
		s = p.ParsePage(s, page.Lines)
	}
	return s.Flush(p.opts.Flush).Completed()
}

// ParsePage folds the lines of one page into s.
func (p *Parser) ParsePage(s State, lines []string) State {
	for i := 0; i < len(lines); {
		tok := p.classifier.Classify(lines, i)
		s = s.Step(tok, p.opts.Flush)
		i += max(tok.Consumed, 1)
	}
	return s
}

// ParseLines parses a single page of lines.
func (p *Parser) ParseLines(lines []string) []manifest.ContainerRecord {
	return p.Parse([]manifest.Page{{Number: 1, Lines: lines}})
}

// Parse is a convenience wrapper around New(opts).Parse(pages).
func Parse(pages []manifest.Page, opts Options) []manifest.ContainerRecord {
	return New(opts).Parse(pages)
}
