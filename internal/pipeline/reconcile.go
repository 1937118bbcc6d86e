package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Reading is one canonical text together with the confidence it was read at.
// An empty Text means the pass produced nothing usable.
type Reading struct {
	Text       string
	Confidence int
}

// Decision is the outcome of reconciling two readings.
type Decision struct {
	Text     string
	Note     string
	Mismatch bool
}

// Policy picks the reported text from a first-pass and a second-pass reading.
type Policy interface {
	Name() string
	Reconcile(first, second Reading) Decision
}

// Policy names.
const (
	PolicyShorter    = "shorter"
	PolicyFirst      = "first"
	PolicySecond     = "second"
	PolicyConfidence = "confidence"
)

// decide applies the rules shared by every policy: equal readings win
// outright and an empty side yields to the other. pick is only consulted
// when both readings are non-empty and differ. Any difference counts as a
// mismatch; the note is only set when flag is true.
func decide(first, second Reading, flag bool, pick func(a, b Reading) Reading) Decision {
	if first.Text == second.Text {
		return Decision{Text: first.Text}
	}
	d := Decision{Mismatch: true}
	switch {
	case first.Text == "":
		d.Text = second.Text
	case second.Text == "":
		d.Text = first.Text
	default:
		d.Text = pick(first, second).Text
	}
	if flag {
		d.Note = NoteMismatch
	}
	return d
}

// PreferShorter reports the shorter of two differing readings. Extra
// characters in one reading are usually a run-on misread. Ties keep the
// first reading.
type PreferShorter struct {
	FlagMismatch bool
}

func (PreferShorter) Name() string { return PolicyShorter }

func (p PreferShorter) Reconcile(first, second Reading) Decision {
	return decide(first, second, p.FlagMismatch, func(a, b Reading) Reading {
		if utf8.RuneCountInString(b.Text) < utf8.RuneCountInString(a.Text) {
			return b
		}
		return a
	})
}

// PreferFirst always keeps the whole-image reading when it exists.
type PreferFirst struct {
	FlagMismatch bool
}

func (PreferFirst) Name() string { return PolicyFirst }

func (p PreferFirst) Reconcile(first, second Reading) Decision {
	return decide(first, second, p.FlagMismatch, func(a, _ Reading) Reading { return a })
}

// PreferSecond keeps the refined reading when it exists.
type PreferSecond struct {
	FlagMismatch bool
}

func (PreferSecond) Name() string { return PolicySecond }

func (p PreferSecond) Reconcile(first, second Reading) Decision {
	return decide(first, second, p.FlagMismatch, func(_, b Reading) Reading { return b })
}

// PreferConfident keeps the reading with the higher confidence, ties to the first.
type PreferConfident struct {
	FlagMismatch bool
}

func (PreferConfident) Name() string { return PolicyConfidence }

func (p PreferConfident) Reconcile(first, second Reading) Decision {
	return decide(first, second, p.FlagMismatch, func(a, b Reading) Reading {
		if b.Confidence > a.Confidence {
			return b
		}
		return a
	})
}

var policies = map[string]func(flag bool) Policy{
	PolicyShorter:    func(f bool) Policy { return PreferShorter{FlagMismatch: f} },
	PolicyFirst:      func(f bool) Policy { return PreferFirst{FlagMismatch: f} },
	PolicySecond:     func(f bool) Policy { return PreferSecond{FlagMismatch: f} },
	PolicyConfidence: func(f bool) Policy { return PreferConfident{FlagMismatch: f} },
}

// PolicyNames lists the selectable strategies.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewPolicy returns the strategy registered under name. An empty name
// selects PreferShorter.
func NewPolicy(name string, flagMismatch bool) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = PolicyShorter
	}
	f, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown reconcile policy %q (want one of %s)", name, strings.Join(PolicyNames(), ", "))
	}
	return f(flagMismatch), nil
}
