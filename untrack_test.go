package ripple_test

import (
	"testing"

	"github.com/ripplekit/ripple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should pause tracking
func TestShouldPauseTracking(t *testing.T) {
	eng := newTestEngine(t)

	src := ripple.Observable(eng, 0)
	calls := 0
	c := ripple.Computed(eng, func() (int, error) {
		calls++
		eng.PauseTracking()
		value := src.Value()
		eng.ResumeTracking()
		return value, nil
	})

	dispose := ripple.Autorun(eng, func() error {
		_, err := c.Value()
		return err
	})
	defer dispose()
	require.Equal(t, 1, calls)

	// src was read inside a paused window, so the write triggers nothing
	src.SetValue(1)
	assert.Equal(t, 1, calls)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestPauseTrackingInReaction(t *testing.T) {
	eng := newTestEngine(t)

	tracked := ripple.Observable(eng, 1)
	untracked := ripple.Observable(eng, 100)
	runs := 0
	var lastSum int
	dispose := ripple.Autorun(eng, func() error {
		sum := tracked.Value()
		eng.PauseTracking()
		sum += untracked.Value()
		eng.ResumeTracking()
		lastSum = sum
		runs++
		return nil
	})
	defer dispose()
	require.Equal(t, 1, runs)
	require.Equal(t, 101, lastSum)

	untracked.SetValue(200)
	assert.Equal(t, 1, runs)

	tracked.SetValue(2)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 202, lastSum)
}

func TestPlainReadsOutsideDerivationsTrackNothing(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	assert.Equal(t, 1, a.Value())

	c := ripple.Computed(eng, func() (int, error) {
		return a.Value() * 2, nil
	})
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
