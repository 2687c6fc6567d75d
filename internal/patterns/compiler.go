// Package patterns provides shared regex patterns and helper functions for manifest parsing.
// This file contains the grok-style pattern compiler.

package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Format represents a line format with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
}

// Compiler manages pattern compilation and matching for a set of formats.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
	byName       map[string]int
}

// NewCompiler creates a new pattern compiler with the given formats.
// It merges the provided base patterns with the global BasePatterns,
// allowing local patterns to override global ones.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string),
		formats:      make([]Format, len(formats)),
		byName:       make(map[string]int, len(formats)),
	}

	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}

	copy(c.formats, formats)
	for i, f := range c.formats {
		c.byName[f.Name] = i
	}

	return c
}

// MustCompile is like Compile but panics on error. Use for package-level
// formats built from constant patterns.
func (c *Compiler) MustCompile() *Compiler {
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		expanded := c.expand(c.formats[i].Pattern)
		re, err := regexp.Compile(expanded)
		if err != nil {
			return fmt.Errorf("format %s: %w", c.formats[i].Name, err)
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// expand replaces {PLACEHOLDER} with actual regex patterns.
func (c *Compiler) expand(pattern string) string {
	result := pattern
	for name, regex := range c.basePatterns {
		result = strings.ReplaceAll(result, "{"+name+"}", regex)
	}
	return result
}

// Expanded returns the expanded regex source of a named format.
func (c *Compiler) Expanded(name string) string {
	i, ok := c.byName[name]
	if !ok {
		return ""
	}
	return c.expand(c.formats[i].Pattern)
}

// Match represents a successful pattern match with extracted fields.
type Match struct {
	FormatName string            // Name of the matched format
	Captures   map[string]string // Named capture group values
}

// ParseFormat matches text against a single named format.
// Returns nil if the format is unknown or does not match.
func (c *Compiler) ParseFormat(name, text string) *Match {
	i, ok := c.byName[name]
	if !ok {
		return nil
	}
	return matchFormat(c.formats[i], text)
}

func matchFormat(format Format, text string) *Match {
	if format.Compiled == nil {
		return nil
	}
	match := format.Compiled.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	result := &Match{
		FormatName: format.Name,
		Captures:   make(map[string]string),
	}
	for i, name := range format.Compiled.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		result.Captures[name] = match[i]
	}
	return result
}

// FormatTrace contains debug information about a format match attempt.
type FormatTrace struct {
	Name     string            // Format name
	Matched  bool              // Whether the pattern matched
	Pattern  string            // The expanded regex pattern
	Captures map[string]string // Captured groups (if matched)
}

// TraceFormat matches text against one named format and records the attempt.
func (c *Compiler) TraceFormat(name, text string) FormatTrace {
	ft := FormatTrace{Name: name, Pattern: c.Expanded(name)}
	if m := c.ParseFormat(name, text); m != nil {
		ft.Matched = true
		ft.Captures = m.Captures
	}
	return ft
}
