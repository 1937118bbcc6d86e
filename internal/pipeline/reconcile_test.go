package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(text string) Reading { return Reading{Text: text} }

func TestPreferShorter_EqualReadings(t *testing.T) {
	d := PreferShorter{FlagMismatch: true}.Reconcile(r("R54T1067RRR"), r("R54T1067RRR"))
	assert.Equal(t, "R54T1067RRR", d.Text)
	assert.Empty(t, d.Note)
	assert.False(t, d.Mismatch)
}

// Shorter wins: a run-on second pass usually carries spurious trailing
// characters. This is a documented heuristic, not a correctness property.
func TestPreferShorter_RunOnSecondPass(t *testing.T) {
	d := PreferShorter{}.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIJXX"))
	assert.Equal(t, "RABCDEFGHIJ", d.Text)
	assert.True(t, d.Mismatch)
	assert.Empty(t, d.Note, "mismatch note is off by default")

	d = PreferShorter{}.Reconcile(r("RABCDEFGHIJXX"), r("RABCDEFGHIJ"))
	assert.Equal(t, "RABCDEFGHIJ", d.Text)
}

func TestPreferShorter_EmptySide(t *testing.T) {
	assert.Equal(t, "RABCDEFGHIJ", PreferShorter{}.Reconcile(r("RABCDEFGHIJ"), r("")).Text)
	assert.Equal(t, "RABCDEFGHIJ", PreferShorter{}.Reconcile(r(""), r("RABCDEFGHIJ")).Text)
	assert.Empty(t, PreferShorter{}.Reconcile(r(""), r("")).Text)
}

func TestPreferShorter_TieKeepsFirst(t *testing.T) {
	d := PreferShorter{}.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIK"))
	assert.Equal(t, "RABCDEFGHIJ", d.Text)
	assert.True(t, d.Mismatch)
}

func TestFlagMismatch(t *testing.T) {
	d := PreferShorter{FlagMismatch: true}.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIJXX"))
	assert.Equal(t, NoteMismatch, d.Note)

	d = PreferShorter{FlagMismatch: true}.Reconcile(r("RABCDEFGHIJ"), r(""))
	assert.Equal(t, NoteMismatch, d.Note)
	assert.Equal(t, "RABCDEFGHIJ", d.Text)
}

func TestFlagMismatch_OffLeavesNote(t *testing.T) {
	d := PreferShorter{}.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIJXX"))
	assert.True(t, d.Mismatch)
	assert.Empty(t, d.Note)

	d = PreferShorter{FlagMismatch: true}.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIJ"))
	assert.False(t, d.Mismatch)
	assert.Empty(t, d.Note)
}

func TestAlternatePolicies(t *testing.T) {
	first := Reading{Text: "RABCDEFGHIJ", Confidence: 40}
	second := Reading{Text: "RABCDEFGHIJXX", Confidence: 90}

	assert.Equal(t, first.Text, PreferFirst{}.Reconcile(first, second).Text)
	assert.Equal(t, second.Text, PreferSecond{}.Reconcile(first, second).Text)
	assert.Equal(t, second.Text, PreferConfident{}.Reconcile(first, second).Text)
	assert.Equal(t, first.Text, PreferConfident{}.Reconcile(first, Reading{Text: second.Text, Confidence: 40}).Text)

	// Empty sides still yield to the other reading.
	assert.Equal(t, first.Text, PreferSecond{}.Reconcile(first, r("")).Text)
	assert.Equal(t, second.Text, PreferFirst{}.Reconcile(r(""), second).Text)
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy("", false)
	require.NoError(t, err)
	assert.Equal(t, PolicyShorter, p.Name())

	for _, name := range PolicyNames() {
		p, err := NewPolicy(name, true)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
		assert.Equal(t, NoteMismatch, p.Reconcile(r("RABCDEFGHIJ"), r("RABCDEFGHIK")).Note)
	}

	p, err = NewPolicy(" Confidence ", false)
	require.NoError(t, err)
	assert.Equal(t, PolicyConfidence, p.Name())

	_, err = NewPolicy("longest", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shorter")
}
