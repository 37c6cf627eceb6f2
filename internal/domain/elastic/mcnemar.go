package elastic

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
)

// DefaultCritical is the chi-square(1) critical value at 95% confidence.
const DefaultCritical = 3.84

// ErrConfidence is returned by CriticalValue for levels outside (0, 1).
var ErrConfidence = errors.New("confidence level must be in (0, 1)")

// CriticalValue returns the chi-square critical value with one degree of
// freedom for the given confidence level: 0.95 gives ~3.84, 0.90 ~2.71.
func CriticalValue(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("critical value for %v: %w", confidence, ErrConfidence)
	}
	return distuv.ChiSquared{K: 1}.Quantile(confidence), nil
}

// McNemarOption configures a McNemarAdvisor.
type McNemarOption func(*McNemarAdvisor)

// WithCritical sets the McNemar significance cutoff.
func WithCritical(v float64) McNemarOption {
	return func(a *McNemarAdvisor) { a.critical = v }
}

// McNemarAdvisor compares the shrunk and grown predictions against the
// default one with paired tables. It grows when the grown prediction is
// more accurate and shrinking is not significantly better, and shrinks
// symmetrically.
type McNemarAdvisor struct {
	critical float64

	shrink stats.ContingencyTable // case: shrunk, control: default
	grow   stats.ContingencyTable // case: grown, control: default

	operations int
}

// NewMcNemarAdvisor creates a McNemar advisor with DefaultCritical unless
// overridden.
func NewMcNemarAdvisor(opts ...McNemarOption) *McNemarAdvisor {
	a := &McNemarAdvisor{critical: DefaultCritical}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *McNemarAdvisor) AddResults(y, ys, yd, yg int) {
	a.shrink.Add(y, ys, yd)
	a.grow.Add(y, yg, yd)
}

// Accuracies returns the epoch accuracy of the shrunk, default and grown
// predictions. All are NaN before the first instance.
func (a *McNemarAdvisor) Accuracies() (s, d, g float64) {
	return a.shrink.AccuracyCase(), a.shrink.AccuracyControl(), a.grow.AccuracyCase()
}

// Statistics returns the McNemar statistics of shrunk-vs-default and
// grown-vs-default.
func (a *McNemarAdvisor) Statistics() (shrink, grow float64) {
	return a.shrink.McNemar(), a.grow.McNemar()
}

func (a *McNemarAdvisor) ShouldResize() Action {
	accS, accD, accG := a.Accuracies()
	stest, gtest := a.Statistics()
	switch {
	case accG > accD && stest < a.critical:
		return Grow
	case accS > accD && gtest < a.critical:
		return Shrink
	default:
		return Keep
	}
}

func (a *McNemarAdvisor) Grow() {
	a.operations++
	a.Reset()
}

func (a *McNemarAdvisor) Shrink() {
	a.operations--
	a.Reset()
}

func (a *McNemarAdvisor) Reset() {
	a.shrink.Reset()
	a.grow.Reset()
}

// Critical returns the significance cutoff in use.
func (a *McNemarAdvisor) Critical() float64 { return a.critical }

// Operations returns grows minus shrinks acknowledged so far.
func (a *McNemarAdvisor) Operations() int { return a.operations }

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (a *McNemarAdvisor) MarshalZerologObject(e *zerolog.Event) {
	accS, accD, accG := a.Accuracies()
	stest, gtest := a.Statistics()
	e.Str("kind", "mcnemar").
		Uint64("epoch", a.shrink.Total()).
		Float64("acc_shrink", accS).
		Float64("acc_default", accD).
		Float64("acc_grow", accG).
		Float64("stat_shrink", stest).
		Float64("stat_grow", gtest).
		Int("operations", a.operations)
}
