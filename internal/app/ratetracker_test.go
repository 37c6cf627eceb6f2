package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateTracker_Empty(t *testing.T) {
	rt := NewRateTracker(10 * time.Second)
	assert.Equal(t, 0.0, rt.PerSecond(), "empty tracker should return 0")
	rt.Record(100)
	assert.Equal(t, 0.0, rt.PerSecond(), "one sample has no rate")
}

func TestRateTracker_Rate(t *testing.T) {
	rt := NewRateTracker(10 * time.Second)
	now := time.Now()
	rt.RecordAt(now, 0)
	rt.RecordAt(now.Add(2*time.Second), 1000)
	rt.RecordAt(now.Add(4*time.Second), 3000)
	assert.InDelta(t, 750.0, rt.PerSecond(), 1e-9)
}

func TestRateTracker_WindowEviction(t *testing.T) {
	rt := NewRateTracker(5 * time.Second)
	now := time.Now()
	rt.RecordAt(now, 0)
	rt.RecordAt(now.Add(10*time.Second), 100)
	rt.RecordAt(now.Add(12*time.Second), 500)
	// The first sample fell out of the window.
	assert.InDelta(t, 200.0, rt.PerSecond(), 1e-9)

	rt.RecordAt(now.Add(60*time.Second), 600)
	assert.Equal(t, 0.0, rt.PerSecond(), "a lone sample remains after a long gap")

	rt.Reset()
	assert.Equal(t, 0.0, rt.PerSecond())
}

func TestWindow(t *testing.T) {
	w := NewWindow(4)
	assert.Equal(t, 0.0, w.Accuracy())

	for _, ok := range []bool{true, true, false} {
		w.Add(ok)
	}
	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 2.0/3, w.Accuracy(), 1e-9)

	// Fill and wrap: window holds false, false, false, true
	w.Add(false)
	w.Add(false)
	w.Add(false)
	w.Add(true)
	assert.Equal(t, 4, w.Len())
	assert.Equal(t, 0.25, w.Accuracy())
}

func TestWindow_MinimumSize(t *testing.T) {
	w := NewWindow(0)
	w.Add(true)
	w.Add(false)
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 0.0, w.Accuracy())
}
