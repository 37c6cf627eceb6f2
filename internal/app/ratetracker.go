package app

import "time"

// RateTracker measures instances per second over a rolling time window.
// Not thread-safe; the runner owns it.
type RateTracker struct {
	window  time.Duration
	samples []rateSample
}

type rateSample struct {
	ts        time.Time
	instances uint64
}

// NewRateTracker creates a tracker with the given rolling window duration.
func NewRateTracker(window time.Duration) *RateTracker {
	return &RateTracker{window: window}
}

// Record notes the cumulative instance count at the current time.
func (r *RateTracker) Record(instances uint64) {
	r.RecordAt(time.Now(), instances)
}

// RecordAt notes the cumulative instance count at a specific timestamp.
func (r *RateTracker) RecordAt(ts time.Time, instances uint64) {
	r.samples = append(r.samples, rateSample{ts: ts, instances: instances})
	r.evict(ts)
}

// PerSecond returns the throughput between the oldest and newest sample in
// the window, or 0 with fewer than two samples.
func (r *RateTracker) PerSecond() float64 {
	if len(r.samples) < 2 {
		return 0
	}
	first, last := r.samples[0], r.samples[len(r.samples)-1]
	elapsed := last.ts.Sub(first.ts).Seconds()
	if elapsed <= 0 || last.instances < first.instances {
		return 0
	}
	return float64(last.instances-first.instances) / elapsed
}

// Reset clears all samples.
func (r *RateTracker) Reset() {
	r.samples = nil
}

// evict removes samples older than the window, keeping at least one.
func (r *RateTracker) evict(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.samples)-1 && r.samples[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.samples = r.samples[i:]
	}
}

// Window is the prequential accuracy over the last n outcomes.
type Window struct {
	ring    []bool
	next    int
	full    bool
	correct int
}

// NewWindow returns a window of n outcomes; n < 1 is treated as 1.
func NewWindow(n int) *Window {
	if n < 1 {
		n = 1
	}
	return &Window{ring: make([]bool, n)}
}

// Add records one outcome, evicting the oldest when full.
func (w *Window) Add(correct bool) {
	if w.full && w.ring[w.next] {
		w.correct--
	}
	w.ring[w.next] = correct
	if correct {
		w.correct++
	}
	w.next++
	if w.next == len(w.ring) {
		w.next = 0
		w.full = true
	}
}

// Len returns the number of outcomes held.
func (w *Window) Len() int {
	if w.full {
		return len(w.ring)
	}
	return w.next
}

// Accuracy returns the fraction of correct outcomes, 0 when empty.
func (w *Window) Accuracy() float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	return float64(w.correct) / float64(n)
}
