package stats

import "math"

// DefaultEMAWindow is the time constant used by the resize advisor.
const DefaultEMAWindow = 2000

// EMA is a single-value exponential moving average with a fixed time
// constant. The first value seeds the average; each later value moves it by
// alpha*(value-old) with alpha = exp(-1/window).
type EMA struct {
	alpha float64
	value float64
	set   bool
	n     uint64
}

// NewEMA creates an EMA with the given time constant in instances.
// Non-positive windows fall back to DefaultEMAWindow.
func NewEMA(window float64) *EMA {
	if window <= 0 {
		window = DefaultEMAWindow
	}
	return &EMA{alpha: math.Exp(-1 / window)}
}

// Add folds value into the average and returns the new smoothed value.
func (e *EMA) Add(value float64) float64 {
	e.n++
	if !e.set {
		e.value = value
		e.set = true
		return value
	}
	e.value += e.alpha * (value - e.value)
	return e.value
}

// Value returns the current smoothed value, 0 before the first Add.
func (e *EMA) Value() float64 {
	return e.value
}

// Alpha returns the smoothing factor.
func (e *EMA) Alpha() float64 {
	return e.alpha
}

// Count returns how many values were added since the last Reset.
func (e *EMA) Count() uint64 {
	return e.n
}

// Reset forgets the smoothed value; the next Add seeds it again.
func (e *EMA) Reset() {
	e.value = 0
	e.set = false
	e.n = 0
}
