package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// RuleSpec is the file form of a Rule. Exactly one trigger must be set.
//
//	families:
//	  lg:
//	    - name: second-char-z
//	      char_at: {position: 2, equals: "Z"}
//	      set: {position: 2, char: "2"}
type RuleSpec struct {
	Name     string    `yaml:"name"`
	CharAt   *CharSpec `yaml:"char_at,omitempty"`
	Prefixes []string  `yaml:"prefixes,omitempty"`
	Set      CharSet   `yaml:"set"`
}

// CharSpec matches one character at a 1-based position.
type CharSpec struct {
	Position int    `yaml:"position"`
	Equals   string `yaml:"equals"`
}

// CharSet writes one character at a 1-based position.
type CharSet struct {
	Position int    `yaml:"position"`
	Char     string `yaml:"char"`
}

// RuleFile is the top level of a rules file.
type RuleFile struct {
	Families map[string][]RuleSpec `yaml:"families"`
}

func singleRune(s, field string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", field, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Compile turns a spec into a Rule.
func (rs RuleSpec) Compile() (Rule, error) {
	if rs.Name == "" {
		return Rule{}, errors.New("rule name is required")
	}
	if (rs.CharAt == nil) == (len(rs.Prefixes) == 0) {
		return Rule{}, fmt.Errorf("rule %s: exactly one of char_at or prefixes is required", rs.Name)
	}
	if rs.Set.Position < 1 {
		return Rule{}, fmt.Errorf("rule %s: set.position must be >= 1", rs.Name)
	}
	ch, err := singleRune(rs.Set.Char, "set.char")
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rs.Name, err)
	}

	var when Predicate
	if rs.CharAt != nil {
		if rs.CharAt.Position < 1 {
			return Rule{}, fmt.Errorf("rule %s: char_at.position must be >= 1", rs.Name)
		}
		eq, err := singleRune(rs.CharAt.Equals, "char_at.equals")
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", rs.Name, err)
		}
		when = CharAt(rs.CharAt.Position, eq)
	} else {
		when = HasAnyPrefix(rs.Prefixes...)
	}
	return Rule{Name: rs.Name, When: when, Apply: SetCharAt(rs.Set.Position, ch)}, nil
}

// LoadRules decodes a YAML rule file and registers every family into reg.
func LoadRules(r io.Reader, reg *Registry) error {
	var file RuleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("serial: decode rules: %w", err)
	}
	for family, specs := range file.Families {
		rules := make([]Rule, 0, len(specs))
		for _, spec := range specs {
			rule, err := spec.Compile()
			if err != nil {
				return fmt.Errorf("serial: family %s: %w", family, err)
			}
			rules = append(rules, rule)
		}
		reg.Register(family, rules...)
	}
	return nil
}

// LoadRulesFile is LoadRules for a path.
func LoadRulesFile(path string, reg *Registry) error {
	f, err := os.Open(path) //nolint:gosec // G304: rules file path comes from configuration
	if err != nil {
		return fmt.Errorf("serial: open rules: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRules(f, reg)
}
