package elastic

import (
	"github.com/rs/zerolog"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
)

// Default EMA thresholds.
const (
	DefaultGrowThreshold   = 0.005
	DefaultShrinkThreshold = 0.005
)

// EMAOption configures an EMAAdvisor.
type EMAOption func(*EMAAdvisor)

// WithGrowThreshold sets the minimum EMA gain of the grown prediction over
// the default one required to grow.
func WithGrowThreshold(v float64) EMAOption {
	return func(a *EMAAdvisor) { a.growThreshold = v }
}

// WithShrinkThreshold sets the minimum EMA gain of the shrunk prediction
// over the default one required to shrink.
func WithShrinkThreshold(v float64) EMAOption {
	return func(a *EMAAdvisor) { a.shrinkThreshold = v }
}

// WithWindow sets the EMA time constant in instances.
func WithWindow(w float64) EMAOption {
	return func(a *EMAAdvisor) { a.window = w }
}

// EMAAdvisor smooths the running accuracy of each counterfactual within the
// current epoch and compares the smoothed values against the default.
type EMAAdvisor struct {
	growThreshold   float64
	shrinkThreshold float64
	window          float64

	seen             uint64
	okS, okD, okG    uint64
	emaS, emaD, emaG *stats.EMA

	operations int
}

// NewEMAAdvisor creates an EMA advisor. Unset options use defaults.
func NewEMAAdvisor(opts ...EMAOption) *EMAAdvisor {
	a := &EMAAdvisor{
		growThreshold:   DefaultGrowThreshold,
		shrinkThreshold: DefaultShrinkThreshold,
		window:          stats.DefaultEMAWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.emaS = stats.NewEMA(a.window)
	a.emaD = stats.NewEMA(a.window)
	a.emaG = stats.NewEMA(a.window)
	return a
}

func (a *EMAAdvisor) AddResults(y, ys, yd, yg int) {
	a.seen++
	if ys == y {
		a.okS++
	}
	if yd == y {
		a.okD++
	}
	if yg == y {
		a.okG++
	}
	n := float64(a.seen)
	a.emaS.Add(float64(a.okS) / n)
	a.emaD.Add(float64(a.okD) / n)
	a.emaG.Add(float64(a.okG) / n)
}

// Deltas returns the smoothed gains of the grown and shrunk predictions
// over the default one.
func (a *EMAAdvisor) Deltas() (grow, shrink float64) {
	d := a.emaD.Value()
	return a.emaG.Value() - d, a.emaS.Value() - d
}

func (a *EMAAdvisor) ShouldResize() Action {
	if a.seen == 0 {
		return Keep
	}
	dg, ds := a.Deltas()
	switch {
	case dg > ds && dg > a.growThreshold:
		return Grow
	case ds > dg && ds > a.shrinkThreshold:
		return Shrink
	default:
		return Keep
	}
}

func (a *EMAAdvisor) Grow() {
	a.operations++
	a.Reset()
}

func (a *EMAAdvisor) Shrink() {
	a.operations--
	a.Reset()
}

func (a *EMAAdvisor) Reset() {
	a.seen = 0
	a.okS, a.okD, a.okG = 0, 0, 0
	a.emaS.Reset()
	a.emaD.Reset()
	a.emaG.Reset()
}

// Operations returns grows minus shrinks acknowledged so far.
func (a *EMAAdvisor) Operations() int { return a.operations }

// Seen returns the number of instances in the current epoch.
func (a *EMAAdvisor) Seen() uint64 { return a.seen }

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (a *EMAAdvisor) MarshalZerologObject(e *zerolog.Event) {
	dg, ds := a.Deltas()
	e.Str("kind", "ema").
		Uint64("epoch", a.seen).
		Float64("delta_grow", dg).
		Float64("delta_shrink", ds).
		Int("operations", a.operations)
}
