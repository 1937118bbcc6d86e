package serial

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Predicate reports whether a correction applies to a canonical string.
type Predicate func(s string) bool

// Correction rewrites a canonical string.
type Correction func(s string) string

// Rule pairs a trigger with its correction. Rules of one family run in order.
type Rule struct {
	Name  string
	When  Predicate
	Apply Correction
}

// CharAt triggers when the 1-based position pos holds ch.
func CharAt(pos int, ch rune) Predicate {
	return func(s string) bool {
		r := []rune(s)
		return pos >= 1 && pos <= len(r) && r[pos-1] == ch
	}
}

// HasAnyPrefix triggers when s starts with one of the prefixes.
func HasAnyPrefix(prefixes ...string) Predicate {
	return func(s string) bool {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(s, p) {
				return true
			}
		}
		return false
	}
}

// SetCharAt replaces the rune at 1-based position pos with ch. Strings that
// are too short are returned unchanged.
func SetCharAt(pos int, ch rune) Correction {
	return func(s string) string {
		r := []rune(s)
		if pos < 1 || pos > len(r) {
			return s
		}
		r[pos-1] = ch
		return string(r)
	}
}

// FamilySamsung is the built-in tag for Samsung device serials.
const FamilySamsung = "samsung"

// SamsungRules encode known OCR confusions for Samsung "R54..." serials.
func SamsungRules() []Rule {
	return []Rule{
		{Name: "second-char-s", When: CharAt(2, 'S'), Apply: SetCharAt(2, '5')},
		{Name: "prefix-misread", When: HasAnyPrefix("RB4", "R84"), Apply: SetCharAt(2, '5')},
	}
}

// Registry maps device-family tags to correction tables.
type Registry struct {
	mu       sync.RWMutex
	families map[string][]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[string][]Rule)}
}

// DefaultRegistry returns a registry holding the built-in families.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FamilySamsung, SamsungRules()...)
	return r
}

// Register appends rules to a family, creating it if needed.
func (r *Registry) Register(family string, rules ...Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[family] = append(r.families[family], rules...)
}

// Rules returns a copy of the family's table.
func (r *Registry) Rules(family string) ([]Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.families[family]
	if !ok {
		return nil, fmt.Errorf("serial: unknown device family %q", family)
	}
	return append([]Rule(nil), rules...), nil
}

// Families lists registered family tags in sorted order.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.families))
	for f := range r.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
