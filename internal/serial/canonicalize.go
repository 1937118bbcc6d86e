// Package serial canonicalizes raw OCR text into serial numbers: character
// substitution, re-anchoring on the serial pattern and per-family correction
// tables.
package serial

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// DefaultPattern matches "R" followed by ten uppercase letters or digits.
const DefaultPattern = `R[A-Z0-9]{10}`

// Canonicalizer is safe for concurrent use once constructed.
type Canonicalizer struct {
	pattern *regexp.Regexp
	rules   []Rule
	applied []string
}

// New builds a canonicalizer for pattern with the correction tables of the
// given families, looked up in reg.
func New(pattern string, reg *Registry, families ...string) (*Canonicalizer, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("serial: compile pattern %q: %w", pattern, err)
	}
	c := &Canonicalizer{pattern: re}
	for _, f := range families {
		if f == "" {
			continue
		}
		if reg == nil {
			return nil, fmt.Errorf("serial: family %q requested without a registry", f)
		}
		rules, err := reg.Rules(f)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, rules...)
		c.applied = append(c.applied, f)
	}
	return c, nil
}

// MustNew is New for static patterns; it panics on error.
func MustNew(pattern string, reg *Registry, families ...string) *Canonicalizer {
	c, err := New(pattern, reg, families...)
	if err != nil {
		panic(err)
	}
	return c
}

// Pattern returns the compiled serial pattern.
func (c *Canonicalizer) Pattern() *regexp.Regexp { return c.pattern }

// Families returns the enabled family tags.
func (c *Canonicalizer) Families() []string { return append([]string(nil), c.applied...) }

// Substitute performs the character cleanup that precedes matching: trim,
// fold full-width forms and map every letter O to digit 0.
func Substitute(raw string) string {
	s := strings.TrimSpace(raw)
	s = width.Fold.String(s)
	return strings.ReplaceAll(s, "O", "0")
}

// Canonicalize returns the canonical serial for raw, or false when the
// pattern does not occur. Text before the first match is dropped; trailing
// characters after it are kept.
func (c *Canonicalizer) Canonicalize(raw string) (string, bool) {
	s := Substitute(raw)
	loc := c.pattern.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	s = s[loc[0]:]
	for _, r := range c.rules {
		if r.When(s) {
			s = r.Apply(s)
		}
	}
	return s, true
}
