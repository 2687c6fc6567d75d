package classifier

import (
	"manifest_parser/internal/patterns"
)

// Rule names.
const (
	RuleContainer = "container"
	RuleTriple    = "shipment_triple"
	RuleInline    = "shipment_inline"
)

// containerRule recognises a container id line. The id is a known prefix
// followed by a serial holding at least one digit, or BULK. In strict mode the
// id must be the whole line; otherwise it is the first token of the line.
type containerRule struct {
	strict bool
}

func (r *containerRule) Name() string  { return RuleContainer }
func (r *containerRule) Priority() int { return 10 }

func (r *containerRule) QuickCheck(line string) bool {
	return patterns.HasContainerPrefix(line)
}

func (r *containerRule) format() string {
	if r.strict {
		return patterns.FormatContainerStrict
	}
	return patterns.FormatContainerLoose
}

func (r *containerRule) Classify(lines []string, i int) (Token, bool) {
	line := lineAt(lines, i)
	m := patterns.Lines.ParseFormat(r.format(), line)
	if m == nil {
		return Token{}, false
	}
	return Token{
		Kind:        Container,
		Rule:        r.Name(),
		ContainerID: patterns.FirstToken(m.Captures["id"]),
		Consumed:    1,
	}, true
}

// tripleRule recognises a shipment spread over three lines:
//
//	057-12345675
//	4/10
//	120,5
//
// The AWB line must be exact and both following lines must exist on the
// same page.
type tripleRule struct{}

func (r *tripleRule) Name() string  { return RuleTriple }
func (r *tripleRule) Priority() int { return 20 }

func (r *tripleRule) QuickCheck(line string) bool {
	return len(line) == 12 && patterns.LooksLikeAWB(line)
}

func (r *tripleRule) Classify(lines []string, i int) (Token, bool) {
	m := patterns.Lines.ParseFormat(patterns.FormatAWB, lineAt(lines, i))
	if m == nil || i+2 >= len(lines) {
		return Token{}, false
	}

	item, err := ParseTriple(m.Captures["awb"], lineAt(lines, i+1), lineAt(lines, i+2))
	if err != nil {
		return Token{Err: err}, false
	}
	return Token{Kind: Shipment, Rule: r.Name(), Item: item, Consumed: 3}, true
}

// inlineRule recognises a shipment on a single line: "057-12345675 4/10 120,5".
type inlineRule struct{}

func (r *inlineRule) Name() string  { return RuleInline }
func (r *inlineRule) Priority() int { return 30 }

func (r *inlineRule) QuickCheck(line string) bool {
	return len(line) > 12 && patterns.LooksLikeAWB(line)
}

func (r *inlineRule) Classify(lines []string, i int) (Token, bool) {
	m := patterns.Lines.ParseFormat(patterns.FormatInline, lineAt(lines, i))
	if m == nil {
		return Token{}, false
	}

	item, err := ParseTriple(m.Captures["awb"], m.Captures["pieces"], m.Captures["weight"])
	if err != nil {
		return Token{Err: err}, false
	}
	return Token{Kind: Shipment, Rule: r.Name(), Item: item, Consumed: 1}, true
}
