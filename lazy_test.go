package ripple_test

import (
	"testing"

	"github.com/ripplekit/ripple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyComputedRunsOnlyWhenRead(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	calls := 0
	c := ripple.Computed(eng, func() (int, error) {
		calls++
		return a.Value() * 2, nil
	})
	assert.Equal(t, 0, calls)

	// writes alone never evaluate a lazy computed
	a.SetValue(2)
	a.SetValue(3)
	assert.Equal(t, 0, calls)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.Equal(t, 1, calls)
}

func TestLazyComputedReevaluatesPerRead(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	calls := 0
	c := ripple.Computed(eng, func() (int, error) {
		calls++
		return a.Value(), nil
	})

	c.Value()
	c.Value()
	assert.Equal(t, 2, calls)
}

func TestLazySumScenario(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	b := ripple.Observable(eng, 2)
	sum := ripple.Computed(eng, func() (int, error) {
		return a.Value() + b.Value(), nil
	})

	v, err := sum.Value()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	a.SetValue(10)
	v, err = sum.Value()
	require.NoError(t, err)
	assert.Equal(t, 12, v)
}

func TestReactionPromotesComputedChain(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	innerCalls := 0
	inner := ripple.Computed(eng, func() (int, error) {
		innerCalls++
		return a.Value(), nil
	})
	outerCalls := 0
	outer := ripple.Computed(eng, func() (int, error) {
		outerCalls++
		v, err := inner.Value()
		return v * 10, err
	})

	dispose := ripple.Autorun(eng, func() error {
		_, err := outer.Value()
		return err
	})
	require.Equal(t, 1, innerCalls)
	require.Equal(t, 1, outerCalls)

	// reactive computeds serve repeated reads from cache
	outer.Value()
	outer.Value()
	inner.Value()
	assert.Equal(t, 1, innerCalls)
	assert.Equal(t, 1, outerCalls)

	a.SetValue(2)
	assert.Equal(t, 2, innerCalls)
	assert.Equal(t, 2, outerCalls)

	// disposing the only reaction demotes the whole chain back to lazy
	dispose()
	inner.Value()
	inner.Value()
	assert.Equal(t, 4, innerCalls)
}

func TestDemotionWaitsForLastReactiveObserver(t *testing.T) {
	eng := newTestEngine(t)

	a := ripple.Observable(eng, 1)
	calls := 0
	c := ripple.Computed(eng, func() (int, error) {
		calls++
		return a.Value(), nil
	})

	disposeFirst := ripple.Autorun(eng, func() error {
		_, err := c.Value()
		return err
	})
	disposeSecond := ripple.Autorun(eng, func() error {
		_, err := c.Value()
		return err
	})
	require.Equal(t, 1, calls)

	// still held reactive by the second autorun
	disposeFirst()
	c.Value()
	assert.Equal(t, 1, calls)

	disposeSecond()
	c.Value()
	assert.Equal(t, 2, calls)
}
