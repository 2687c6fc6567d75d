package classifier

import (
	"manifest_parser/internal/patterns"
)

// TraceResult contains every rule attempt made for one line.
type TraceResult struct {
	Index int         // Cursor position within the page.
	Line  string      // Trimmed cursor line.
	Rules []RuleTrace // Attempts in check order.
	Token Token       // Final classification.
}

// RuleTrace contains trace information from one rule's attempt at a line.
type RuleTrace struct {
	RuleName   string                 // Name of the rule.
	QuickCheck QuickCheck             // QuickCheck result.
	Formats    []patterns.FormatTrace // Format match attempts.
	Matched    bool                   // Whether the rule accepted the line.
	Err        error                  // Rejection reason, if any.
}

// QuickCheck contains the result of a rule's quick check.
type QuickCheck struct {
	Passed bool   // Whether the quick check passed.
	Reason string // Optional reason for the result.
}

// Traceable is implemented by rules that can explain their decision.
type Traceable interface {
	// TraceFormats returns the format attempts the rule makes for lines[i].
	TraceFormats(lines []string, i int) []patterns.FormatTrace
}

// Trace classifies lines[i] and records every rule attempt.
func (c *Classifier) Trace(lines []string, i int) *TraceResult {
	tr := &TraceResult{Index: i, Line: lineAt(lines, i)}

	decided := false
	for _, r := range c.rules {
		rt := RuleTrace{RuleName: r.Name()}
		rt.QuickCheck.Passed = r.QuickCheck(tr.Line)
		if !rt.QuickCheck.Passed {
			rt.QuickCheck.Reason = "prefix not present"
			tr.Rules = append(tr.Rules, rt)
			continue
		}
		if t, ok := r.(Traceable); ok {
			rt.Formats = t.TraceFormats(lines, i)
		}
		tok, ok := r.Classify(lines, i)
		rt.Matched = ok
		rt.Err = tok.Err
		tr.Rules = append(tr.Rules, rt)
		if ok && !decided {
			tr.Token = tok
			decided = true
		}
	}

	if !decided {
		tr.Token = c.Classify(lines, i)
	}
	return tr
}

func (r *containerRule) TraceFormats(lines []string, i int) []patterns.FormatTrace {
	return []patterns.FormatTrace{patterns.Lines.TraceFormat(r.format(), lineAt(lines, i))}
}

func (r *tripleRule) TraceFormats(lines []string, i int) []patterns.FormatTrace {
	traces := []patterns.FormatTrace{patterns.Lines.TraceFormat(patterns.FormatAWB, lineAt(lines, i))}
	if i+2 < len(lines) {
		traces = append(traces,
			patterns.Lines.TraceFormat(patterns.FormatPieces, lineAt(lines, i+1)),
			patterns.Lines.TraceFormat(patterns.FormatWeight, lineAt(lines, i+2)),
		)
	}
	return traces
}

func (r *inlineRule) TraceFormats(lines []string, i int) []patterns.FormatTrace {
	return []patterns.FormatTrace{patterns.Lines.TraceFormat(patterns.FormatInline, lineAt(lines, i))}
}
