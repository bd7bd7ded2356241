package ripple_test

import (
	"testing"

	"github.com/ripplekit/ripple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutualComputedsPanicWithCycle(t *testing.T) {
	eng := newTestEngine(t)

	var a, b *ripple.Derived[int]
	a = ripple.Computed(eng, func() (int, error) {
		return b.Value()
	}).Named("a")
	b = ripple.Computed(eng, func() (int, error) {
		return a.Value()
	}).Named("b")

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cycleErr, ok := r.(*ripple.CycleError)
		require.True(t, ok, "panic value should be a *CycleError, got %T", r)
		assert.Contains(t, cycleErr.Error(), "dependency cycle")
		assert.Contains(t, cycleErr.Error(), "computed(a#")
		assert.Contains(t, cycleErr.Error(), "computed(b#")
		assert.NotZero(t, cycleErr.Fingerprint)
		assert.GreaterOrEqual(t, len(cycleErr.Path), 3)
	}()
	a.Value()
}

func TestSelfReferentialComputedPanics(t *testing.T) {
	eng := newTestEngine(t)

	var c *ripple.Derived[int]
	c = ripple.Computed(eng, func() (int, error) {
		v, err := c.Value()
		return v + 1, err
	})

	require.Panics(t, func() {
		c.Value()
	})
}

func TestCycleLeavesEngineUsable(t *testing.T) {
	eng := newTestEngine(t)

	var a, b *ripple.Derived[int]
	a = ripple.Computed(eng, func() (int, error) {
		return b.Value()
	})
	b = ripple.Computed(eng, func() (int, error) {
		return a.Value()
	})

	require.Panics(t, func() { a.Value() })

	// an unrelated part of the graph keeps working after the panic
	src := ripple.Observable(eng, 1)
	doubled := ripple.Computed(eng, func() (int, error) {
		return src.Value() * 2, nil
	})
	runs := 0
	dispose := ripple.Autorun(eng, func() error {
		_, err := doubled.Value()
		runs++
		return err
	})
	defer dispose()

	src.SetValue(2)
	assert.Equal(t, 2, runs)
	v, err := doubled.Value()
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestRunawayReactionPanics(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 0)
	dispose := ripple.Autorun(eng, func() error {
		// rescheduling itself on every run never converges
		a.SetValue(a.Value() + 1)
		return nil
	})
	defer dispose()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		assert.Contains(t, msg, "keeps scheduling itself")
	}()
	a.SetValue(100)
}
