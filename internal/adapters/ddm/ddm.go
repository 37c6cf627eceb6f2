// Package ddm implements the Drift Detection Method of Gama et al. (2004),
// "Learning with Drift Detection".
//
// The detector tracks the error rate p and its standard deviation
// s = sqrt(p(1-p)/n) and remembers the point where p+s was lowest. Once n
// reaches the minimum, it warns when p+s exceeds pmin + warning*smin and
// signals a change (and restarts) past pmin + drift*smin.
package ddm

import (
	"math"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

const (
	DefaultWarningLevel = 2.0
	DefaultDriftLevel   = 3.0
	DefaultMinInstances = 30
)

// Option configures a Detector.
type Option func(*Detector)

func WithWarningLevel(level float64) Option {
	return func(d *Detector) { d.warningLevel = level }
}

func WithDriftLevel(level float64) Option {
	return func(d *Detector) { d.driftLevel = level }
}

func WithMinInstances(n int) Option {
	return func(d *Detector) { d.minInstances = n }
}

// Detector is not safe for concurrent use; each learner owns its clone.
type Detector struct {
	warningLevel float64
	driftLevel   float64
	minInstances int

	n    int
	p    float64
	s    float64
	pmin float64
	smin float64

	warning bool
	change  bool
}

var _ ports.DriftDetector = (*Detector)(nil)

func New(opts ...Option) *Detector {
	d := &Detector{
		warningLevel: DefaultWarningLevel,
		driftLevel:   DefaultDriftLevel,
		minInstances: DefaultMinInstances,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.reset()
	return d
}

func (d *Detector) reset() {
	d.n = 0
	d.p = 1
	d.s = 0
	d.pmin = math.Inf(1)
	d.smin = math.Inf(1)
}

// Input feeds one error indicator: 1 for a mistake, 0 for a hit.
func (d *Detector) Input(x float64) {
	if d.change {
		d.reset()
	}
	d.change = false
	d.warning = false

	d.n++
	d.p += (x - d.p) / float64(d.n)
	d.s = math.Sqrt(d.p * (1 - d.p) / float64(d.n))

	if d.n < d.minInstances {
		return
	}
	if d.p+d.s <= d.pmin+d.smin {
		d.pmin = d.p
		d.smin = d.s
	}
	switch {
	case d.p+d.s > d.pmin+d.driftLevel*d.smin:
		d.change = true
	case d.p+d.s > d.pmin+d.warningLevel*d.smin:
		d.warning = true
	}
}

// Change reports whether the last Input signalled drift. The statistics
// restart on the next Input.
func (d *Detector) Change() bool { return d.change }

// Warning reports whether the last Input crossed the warning level.
func (d *Detector) Warning() bool { return d.warning }

// ErrorRate returns the current error estimate.
func (d *Detector) ErrorRate() float64 { return d.p }

// Seen returns the observations since the last restart.
func (d *Detector) Seen() int { return d.n }

// Clone returns a fresh detector with the same levels.
func (d *Detector) Clone() ports.DriftDetector {
	return New(
		WithWarningLevel(d.warningLevel),
		WithDriftLevel(d.driftLevel),
		WithMinInstances(d.minInstances),
	)
}
