// Package controller drives a grouped ensemble over a labeled stream. Each
// variant decides, one instance at a time, how the voting front is trained,
// whether it grows or shrinks, and when background learners replace weak
// front members.
//
// Controllers are single-threaded. Run independent controllers in separate
// goroutines if parallelism is needed.
package controller

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/ensemble"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// Variant selects a controller strategy.
type Variant string

const (
	// VariantARF keeps a staging group of resize_factor learners and moves
	// them into the front on grow.
	VariantARF Variant = "arf"
	// VariantOneFront promotes a single staged learner on grow and parks the
	// weakest front learner in staging on shrink.
	VariantOneFront Variant = "one-front"
	// VariantGrowFront only grows, judged every instance by McNemar tests.
	VariantGrowFront Variant = "grow-front"
	// VariantSwapOnly never resizes; it only swaps front and candidates.
	VariantSwapOnly Variant = "swap-only"
)

// Variants lists every supported variant.
var Variants = []Variant{VariantARF, VariantOneFront, VariantGrowFront, VariantSwapOnly}

var (
	// ErrUnknownVariant is returned by New for an unsupported variant.
	ErrUnknownVariant = errors.New("unknown controller variant")
	// ErrInvalidParams is returned by New when Params fail validation.
	ErrInvalidParams = errors.New("invalid controller parameters")
)

// Controller trains and queries an elastic ensemble.
type Controller interface {
	// Train runs one test-then-train step. Instances with zero weight are
	// counted but not trained on.
	Train(inst *ports.Instance)

	// Predict returns the accuracy-weighted vote of the front group.
	Predict(inst *ports.Instance) []float64

	Stats() Stats
}

// Params are the sizing parameters shared by all variants.
type Params struct {
	Lambda           float64
	FrontSize        int
	CandidateSize    int
	MaxSize          int
	FrontMinSize     int
	CandidateMinSize int
	ResizeFactor     int
	ElasticInterval  int
	GrowThreshold    float64
	ShrinkThreshold  float64
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Lambda:           6.0,
		FrontSize:        10,
		CandidateSize:    10,
		MaxSize:          100,
		FrontMinSize:     10,
		CandidateMinSize: 10,
		ResizeFactor:     1,
		ElasticInterval:  5,
		GrowThreshold:    elastic.DefaultGrowThreshold,
		ShrinkThreshold:  elastic.DefaultShrinkThreshold,
	}
}

// Validate checks the parameters for v.
func (p Params) Validate(v Variant) error {
	switch {
	case !(p.Lambda >= 1):
		return fmt.Errorf("%w: lambda %v < 1", ErrInvalidParams, p.Lambda)
	case p.FrontSize < 1:
		return fmt.Errorf("%w: front size %d < 1", ErrInvalidParams, p.FrontSize)
	case p.CandidateSize < 0:
		return fmt.Errorf("%w: candidate size %d < 0", ErrInvalidParams, p.CandidateSize)
	case p.MaxSize < 1:
		return fmt.Errorf("%w: max size %d < 1", ErrInvalidParams, p.MaxSize)
	case p.FrontMinSize < 1:
		return fmt.Errorf("%w: front minimum size %d < 1", ErrInvalidParams, p.FrontMinSize)
	case p.CandidateMinSize < 0:
		return fmt.Errorf("%w: candidate minimum size %d < 0", ErrInvalidParams, p.CandidateMinSize)
	case p.ResizeFactor < 1:
		return fmt.Errorf("%w: resize factor %d < 1", ErrInvalidParams, p.ResizeFactor)
	case p.ElasticInterval < 1:
		return fmt.Errorf("%w: elastic interval %d < 1", ErrInvalidParams, p.ElasticInterval)
	case p.GrowThreshold < 0 || p.ShrinkThreshold < 0:
		return fmt.Errorf("%w: negative resize threshold", ErrInvalidParams)
	}
	if (v == VariantSwapOnly || v == VariantGrowFront) && p.CandidateSize < 1 {
		return fmt.Errorf("%w: variant %s needs at least one candidate", ErrInvalidParams, v)
	}
	return nil
}

// Stats is a snapshot of a controller's counters and group sizes.
type Stats struct {
	Variant Variant

	Instances     uint64 // every instance passed to Train
	Trained       uint64 // instances with non-zero weight
	Grows         uint64
	GrowsRejected uint64 // grow advised but the ensemble was at capacity
	Shrinks       uint64
	Swaps         uint64
	Drifts        uint64

	FrontSize     int
	CandidateSize int
	GrowSize      int

	Front     ensemble.GroupStats
	Candidate ensemble.GroupStats
}

// Option configures a controller.
type Option func(*options)

type options struct {
	log     zerolog.Logger
	advisor elastic.Advisor
	swapper ensemble.SwapSelector
	score   ensemble.ScoreFunc
}

// WithLogger sets the logger for resize, swap and drift events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithAdvisor replaces the variant's default resize advisor.
func WithAdvisor(a elastic.Advisor) Option {
	return func(o *options) { o.advisor = a }
}

// WithSwapSelector replaces the default accuracy swap.
func WithSwapSelector(s ensemble.SwapSelector) Option {
	return func(o *options) { o.swapper = s }
}

// WithScore sets the learner score used to rank and swap learners.
func WithScore(f ensemble.ScoreFunc) Option {
	return func(o *options) { o.score = f }
}

// New builds a controller of the given variant. classifier and detector are
// prototypes cloned for every learner; detector may be nil.
func New(v Variant, p Params, classifier ports.Classifier, detector ports.DriftDetector, sampler ports.Sampler, opts ...Option) (Controller, error) {
	if err := p.Validate(v); err != nil {
		return nil, err
	}
	if classifier == nil || sampler == nil {
		return nil, fmt.Errorf("%w: classifier and sampler are required", ErrInvalidParams)
	}
	o := options{log: zerolog.Nop(), score: ensemble.ByAccuracy}
	for _, opt := range opts {
		opt(&o)
	}
	if o.swapper == nil {
		o.swapper = ensemble.AccuracySwap{Score: o.score}
	}

	b := &base{
		variant: v,
		p:       p,
		ens:     ensemble.New(p.MaxSize, ensemble.NewAllocator(classifier, detector)),
		sampler: sampler,
		advisor: o.advisor,
		swapper: o.swapper,
		score:   o.score,
		log:     o.log.With().Str("variant", string(v)).Logger(),
	}

	switch v {
	case VariantSwapOnly:
		return newSwapOnly(b), nil
	case VariantGrowFront:
		if b.advisor == nil {
			b.advisor = elastic.NewMcNemarAdvisor()
		}
		return newGrowFront(b), nil
	case VariantOneFront:
		b.defaultEMA()
		return newOneFront(b), nil
	case VariantARF:
		b.defaultEMA()
		return newARF(b), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// base holds what every variant shares.
type base struct {
	variant Variant
	p       Params
	ens     *ensemble.Ensemble
	sampler ports.Sampler
	advisor elastic.Advisor
	swapper ensemble.SwapSelector
	score   ensemble.ScoreFunc
	log     zerolog.Logger
	st      Stats
}

func (b *base) defaultEMA() {
	if b.advisor == nil {
		b.advisor = elastic.NewEMAAdvisor(
			elastic.WithGrowThreshold(b.p.GrowThreshold),
			elastic.WithShrinkThreshold(b.p.ShrinkThreshold),
		)
	}
}

func (b *base) initFront() {
	b.ens.InitGroup(ensemble.Front, b.p.FrontSize, b.p.FrontMinSize, b.p.MaxSize)
}

func (b *base) initCandidates() {
	if b.p.CandidateSize > 0 {
		b.ens.InitGroup(ensemble.Candidate, b.p.CandidateSize, b.p.CandidateMinSize, b.p.MaxSize)
	}
}

// begin advances the clock and reports whether inst should be trained on.
func (b *base) begin(inst *ports.Instance) bool {
	b.st.Instances++
	b.ens.SetTime(b.st.Instances)
	if inst.Weight == 0 {
		return false
	}
	b.st.Trained++
	return true
}

// train runs one learner and handles drift bookkeeping.
func (b *base) train(g ensemble.GroupID, l *ensemble.Learner, inst *ports.Instance) []float64 {
	k := b.sampler.Poisson(b.p.Lambda)
	vote, drifted := l.Train(inst, k, b.st.Instances)
	if drifted {
		b.st.Drifts++
		b.log.Debug().
			Str("group", g.String()).
			Int("learner", l.ID()).
			Uint64("instance", b.st.Instances).
			Uint64("drifts", l.Drifts()).
			Msg("drift detected, learner reset")
	}
	return vote
}

// trainVote trains slots [from, to) of g and folds their votes into
// combined, each weighted by the learner's accuracy.
func (b *base) trainVote(inst *ports.Instance, g ensemble.GroupID, from, to int, combined []float64) []float64 {
	for i := from; i < to; i++ {
		l := b.ens.Learner(g, i)
		if l == nil {
			continue
		}
		vote := b.train(g, l, inst)
		combined = stats.CombineVote(combined, vote, l.Accuracy())
	}
	return combined
}

// trainOnly trains slots [from, to) of g without voting.
func (b *base) trainOnly(inst *ports.Instance, g ensemble.GroupID, from, to int) {
	for i := from; i < to; i++ {
		if l := b.ens.Learner(g, i); l != nil {
			b.train(g, l, inst)
		}
	}
}

func (b *base) trainGroup(inst *ports.Instance, g ensemble.GroupID) {
	b.trainOnly(inst, g, 0, b.ens.Size(g))
}

// Predict combines the front votes.
func (b *base) Predict(inst *ports.Instance) []float64 {
	var combined []float64
	for _, l := range b.ens.Learners(ensemble.Front) {
		combined = stats.CombineVote(combined, l.Predict(inst), l.Accuracy())
	}
	return combined
}

// swap attempts one front/candidate exchange.
func (b *base) swap() {
	if !b.ens.Initialized(ensemble.Candidate) {
		return
	}
	if b.swapper.Swap(b.ens, ensemble.Front, ensemble.Candidate) {
		b.st.Swaps++
		if e := b.log.Trace(); e.Enabled() {
			e.Uint64("instance", b.st.Instances).Msg("swapped candidate into front")
		}
	}
}

// resizeDue reports whether the advisor should be consulted now.
func (b *base) resizeDue() bool {
	return b.st.Instances%uint64(b.p.ElasticInterval) == 0
}

func (b *base) logResize(action elastic.Action, before, after int) {
	e := b.log.Debug().
		Str("action", action.String()).
		Uint64("instance", b.st.Instances).
		Int("front_before", before).
		Int("front_after", after)
	if m, ok := b.advisor.(zerolog.LogObjectMarshaler); ok {
		e = e.Object("advisor", m)
	}
	e.Msg("front resized")
}

func (b *base) Stats() Stats {
	s := b.st
	s.Variant = b.variant
	s.FrontSize = b.ens.Size(ensemble.Front)
	s.CandidateSize = b.ens.Size(ensemble.Candidate)
	s.GrowSize = b.ens.Size(ensemble.Grow)
	s.Front = b.ens.Stats(ensemble.Front, b.score)
	s.Candidate = b.ens.Stats(ensemble.Candidate, b.score)
	return s
}

// Ensemble exposes the underlying groups for inspection.
func (b *base) Ensemble() *ensemble.Ensemble { return b.ens }
