package ddm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed inputs n observations where every period-th one is an error and
// returns the index of the first change, or -1.
func feed(d *Detector, n, period int) int {
	for i := 0; i < n; i++ {
		x := 0.0
		if period > 0 && i%period == 0 {
			x = 1
		}
		d.Input(x)
		if d.Change() {
			return i
		}
	}
	return -1
}

func TestDetector_StableStreamNoChange(t *testing.T) {
	d := New()
	assert.Equal(t, -1, feed(d, 2000, 10))
	assert.InDelta(t, 0.1, d.ErrorRate(), 0.01)
}

func TestDetector_DetectsRise(t *testing.T) {
	d := New()
	require.Equal(t, -1, feed(d, 1000, 20))

	warned := false
	changed := false
	for i := 0; i < 500 && !changed; i++ {
		d.Input(1)
		warned = warned || d.Warning()
		changed = d.Change()
	}
	assert.True(t, changed)
	assert.True(t, warned, "warning precedes change")
}

func TestDetector_RestartsAfterChange(t *testing.T) {
	d := New()
	feed(d, 1000, 20)
	for !d.Change() {
		d.Input(1)
	}
	assert.True(t, d.Change(), "flag persists until the next input")

	d.Input(0)
	assert.False(t, d.Change())
	assert.Equal(t, 1, d.Seen())
}

func TestDetector_MinInstances(t *testing.T) {
	d := New(WithMinInstances(50))
	for i := 0; i < 49; i++ {
		d.Input(1)
		require.False(t, d.Change())
		require.False(t, d.Warning())
	}
}

func TestDetector_CloneIsFresh(t *testing.T) {
	d := New(WithWarningLevel(1.5), WithDriftLevel(2.5), WithMinInstances(10))
	feed(d, 100, 3)

	c, ok := d.Clone().(*Detector)
	require.True(t, ok)
	assert.Equal(t, 0, c.Seen())
	assert.Equal(t, 1.5, c.warningLevel)
	assert.Equal(t, 2.5, c.driftLevel)
	assert.Equal(t, 10, c.minInstances)
}
