package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// =============================================================================
// Learner
// =============================================================================

func TestLearner_TrainRecordsAccuracyBeforeTraining(t *testing.T) {
	c := &constClassifier{class: 0}
	l := NewLearner(0, c, nil, 0)
	assert.True(t, math.IsNaN(l.Accuracy()))

	vote, drifted := l.Train(&ports.Instance{Label: 0, Weight: 2}, 3, 1)
	assert.False(t, drifted)
	assert.Equal(t, []float64{1, 0}, vote)
	assert.Equal(t, 6.0, c.trained, "weight is instance weight times k")
	assert.Equal(t, 1.0, l.Accuracy())

	l.Train(&ports.Instance{Label: 1, Weight: 1}, 0, 2)
	assert.Equal(t, 6.0, c.trained, "k=0 must not train")
	assert.Equal(t, 0.5, l.Accuracy(), "k=0 still evaluates")
	assert.Equal(t, uint64(2), l.Seen())
}

func TestLearner_DriftResets(t *testing.T) {
	c := &constClassifier{class: 0}
	l := NewLearner(7, c, &triggerDetector{after: 3}, 0)

	for now := uint64(1); now <= 2; now++ {
		_, drifted := l.Train(&ports.Instance{Label: 0, Weight: 1}, 1, now)
		assert.False(t, drifted)
	}
	_, drifted := l.Train(&ports.Instance{Label: 0, Weight: 1}, 1, 3)
	require.True(t, drifted)

	assert.Equal(t, uint64(1), l.Drifts())
	assert.Equal(t, uint64(3), l.LastDriftOn())
	assert.Equal(t, uint64(3), l.CreatedOn())
	assert.Equal(t, uint64(0), l.Seen())
	assert.True(t, math.IsNaN(l.Accuracy()))
	assert.Equal(t, 1, c.resets)

	// fresh detector: needs three more inputs to fire again
	for now := uint64(4); now <= 5; now++ {
		_, drifted = l.Train(&ports.Instance{Label: 0, Weight: 1}, 1, now)
		assert.False(t, drifted)
	}
}

func TestAllocator_ClonesPrototype(t *testing.T) {
	proto := &constClassifier{class: 1}
	a := NewAllocator(proto, nil)
	l1, l2 := a.New(0), a.New(5)
	assert.NotSame(t, l1, l2)
	assert.Equal(t, 0, l1.ID())
	assert.Equal(t, 1, l2.ID())
	assert.Equal(t, uint64(5), l2.CreatedOn())
	assert.Equal(t, 2, a.Allocated())

	l1.Train(&ports.Instance{Label: 1, Weight: 1}, 1, 1)
	assert.Equal(t, 0.0, proto.trained, "prototype must stay untrained")
}

// =============================================================================
// Grow / Shrink
// =============================================================================

func TestInitGroup_ClampsAndPopulates(t *testing.T) {
	e := newTestEnsemble(30)
	assert.Equal(t, 10, e.InitGroup(Front, 4, 10, 100))
	assert.Equal(t, 30, e.Cap(Front), "max is clamped to the global cap")
	assert.Equal(t, 10, e.Min(Front))

	assert.Equal(t, 15, e.InitGroup(Candidate, 15, 10, 100))
	// only 5 global slots remain
	assert.Equal(t, 5, e.InitGroup(Grow, 8, 1, 8))
	assert.Equal(t, 30, e.Total())
}

func TestGrow_AtMaxIsSentinel(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 20, 10, 20)

	assert.Equal(t, -1, e.Grow(Front, 1))
	assert.Equal(t, 20, e.Size(Front))
	assert.Equal(t, 20, e.Total())
}

func TestGrow_NonPositiveIsSentinel(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 5, 1, 10)
	assert.Equal(t, -1, e.Grow(Front, 0))
	assert.Equal(t, -1, e.Grow(Front, -3))
	assert.Equal(t, 5, e.Size(Front))
}

func TestGrow_UninitializedIsSentinel(t *testing.T) {
	e := newTestEnsemble(20)
	assert.Equal(t, -1, e.Grow(Grow, 1))
	assert.Equal(t, 0, e.Shrink(Grow, 1))
}

func TestGrow_PartialGrant(t *testing.T) {
	e := newTestEnsemble(12)
	e.InitGroup(Front, 10, 1, 20)
	assert.Equal(t, 12, e.Grow(Front, 5), "global cap limits the grant")
	assert.NotNil(t, e.Learner(Front, 11))
}

func TestShrink_ClampsAtMin(t *testing.T) {
	e := newTestEnsemble(50)
	e.InitGroup(Front, 12, 10, 50)

	assert.Equal(t, 1, e.Shrink(Front, 1))
	assert.Equal(t, 11, e.Size(Front))
	assert.Equal(t, 1, e.Shrink(Front, 5))
	assert.Equal(t, 10, e.Size(Front))
	assert.Equal(t, 0, e.Shrink(Front, 1))
	assert.Equal(t, 0, e.Shrink(Front, -1))
	assert.Nil(t, e.Learner(Front, 10), "shrunk slots are dead")
}

func TestGrowShrink_Monotonic(t *testing.T) {
	e := newTestEnsemble(40)
	e.InitGroup(Front, 10, 2, 40)
	for k := 1; k <= 5; k++ {
		before := e.Size(Front)
		if got := e.Grow(Front, k); got != -1 {
			assert.Greater(t, got, before)
			assert.Equal(t, got, e.Size(Front))
		}
	}
	for k := 1; k <= 5; k++ {
		before := e.Size(Front)
		n := e.Shrink(Front, k)
		assert.Equal(t, before-n, e.Size(Front))
		assert.LessOrEqual(t, e.Size(Front), before)
	}
}

func TestCapacityInvariant_RandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := newTestEnsemble(25)
	e.InitGroup(Front, 10, 3, 100)
	e.InitGroup(Candidate, 10, 2, 100)
	e.InitGroup(Grow, 1, 1, 5)
	groups := []GroupID{Front, Candidate, Grow}

	for step := 0; step < 2000; step++ {
		g := groups[rng.Intn(len(groups))]
		switch rng.Intn(3) {
		case 0:
			e.Grow(g, rng.Intn(6)-1)
		case 1:
			e.Shrink(g, rng.Intn(6)-1)
		case 2:
			h := groups[rng.Intn(len(groups))]
			if e.Size(g) > 0 && e.Size(h) > 0 {
				e.Swap(g, rng.Intn(e.Size(g)), h, rng.Intn(e.Size(h)))
			}
		}

		require.LessOrEqual(t, e.Total(), e.MaxSize(), "step %d", step)
		seen := make(map[*Learner]bool)
		for _, gg := range groups {
			require.GreaterOrEqual(t, e.Size(gg), e.Min(gg))
			require.LessOrEqual(t, e.Size(gg), e.Cap(gg))
			for _, l := range e.Learners(gg) {
				require.NotNil(t, l)
				require.False(t, seen[l], "learner in two slots at step %d", step)
				seen[l] = true
			}
		}
	}
}

// =============================================================================
// Scans
// =============================================================================

func TestFind_SkipsNaNAndFirstWinsTies(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Front, 4, 1, 10)
	// slot 0 untrained (NaN); 1: 0.5; 2: 0.5; 3: 0.9
	feed(e.Learner(Front, 1), 1, 2)
	feed(e.Learner(Front, 2), 2, 4)
	feed(e.Learner(Front, 3), 9, 10)

	assert.Equal(t, 1, e.FindMin(Front, ByAccuracy))
	assert.Equal(t, 3, e.FindMax(Front, ByAccuracy))

	score := func(l *Learner) float64 { return 1 }
	assert.Equal(t, 0, e.FindMin(Front, score))
	assert.Equal(t, 0, e.FindMax(Front, score))
}

func TestFind_NothingComparable(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Front, 3, 1, 10)
	assert.Equal(t, -1, e.FindMin(Front, ByAccuracy))
	assert.Equal(t, -1, e.FindMax(Front, ByAccuracy))
	assert.Equal(t, -1, e.FindMaxSkip(Front, ByAccuracy))
	assert.Equal(t, -1, e.FindMoveMin(Front, ByAccuracy))
	assert.Equal(t, -1, e.FindMoveMax(Front, ByAccuracy))
}

func TestFindMaxSkip_PrefersMature(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Candidate, 3, 1, 10)
	feed(e.Learner(Candidate, 0), 2, 2)   // 1.0, immature
	feed(e.Learner(Candidate, 1), 15, 20) // 0.75, mature
	feed(e.Learner(Candidate, 2), 10, 20) // 0.5, mature

	assert.Equal(t, 0, e.FindMax(Candidate, ByAccuracy))
	assert.Equal(t, 1, e.FindMaxSkip(Candidate, ByAccuracy))
}

func TestFindMaxSkip_FallsBack(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Candidate, 2, 1, 10)
	feed(e.Learner(Candidate, 0), 1, 2)
	feed(e.Learner(Candidate, 1), 2, 2)
	assert.Equal(t, 1, e.FindMaxSkip(Candidate, ByAccuracy))
}

func TestFindMove(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Front, 4, 1, 10)
	for i, c := range []int{6, 2, 9, 5} {
		feed(e.Learner(Front, i), c, 10)
	}
	weakest := e.Learner(Front, 1)
	strongest := e.Learner(Front, 2)

	assert.Equal(t, 3, e.FindMoveMin(Front, ByAccuracy))
	assert.Same(t, weakest, e.Learner(Front, 3))

	assert.Equal(t, 0, e.FindMoveMax(Front, ByAccuracy))
	assert.Same(t, strongest, e.Learner(Front, 0))
	assert.Equal(t, 4, e.Size(Front))
}

func TestStats(t *testing.T) {
	e := newTestEnsemble(10)
	e.InitGroup(Front, 3, 1, 10)
	feed(e.Learner(Front, 0), 2, 4)
	feed(e.Learner(Front, 1), 4, 4)

	s := e.Stats(Front, ByAccuracy)
	assert.Equal(t, 3, s.Size)
	assert.Equal(t, 2, s.Comparable)
	assert.InDelta(t, 0.75, s.Mean, 1e-12)
	assert.Equal(t, 0.5, s.Min)
	assert.Equal(t, 1.0, s.Max)

	empty := newTestEnsemble(1).Stats(Front, ByAccuracy)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestGroupID_String(t *testing.T) {
	assert.Equal(t, "front", Front.String())
	assert.Equal(t, "candidate", Candidate.String())
	assert.Equal(t, "grow", Grow.String())
	assert.Equal(t, "group(9)", GroupID(9).String())
}

// =============================================================================
// Swap
// =============================================================================

func TestSwap_SizeNeutral(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 5, 1, 10)
	e.InitGroup(Candidate, 3, 1, 10)
	a, b := e.Learner(Front, 2), e.Learner(Candidate, 1)

	e.Swap(Front, 2, Candidate, 1)
	assert.Same(t, b, e.Learner(Front, 2))
	assert.Same(t, a, e.Learner(Candidate, 1))
	assert.Equal(t, 5, e.Size(Front))
	assert.Equal(t, 3, e.Size(Candidate))
}

func TestSwap_OutOfRangePanics(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 2, 1, 10)
	e.InitGroup(Candidate, 2, 1, 10)
	assert.Panics(t, func() { e.Swap(Front, 2, Candidate, 0) })
}

func TestAccuracySwap_Benefit(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 3, 1, 10)
	e.InitGroup(Candidate, 2, 1, 10)
	feed(e.Learner(Front, 0), 16, 20)     // 0.8
	feed(e.Learner(Front, 1), 8, 20)      // 0.4
	feed(e.Learner(Front, 2), 12, 20)     // 0.6
	feed(e.Learner(Candidate, 0), 18, 20) // 0.9
	feed(e.Learner(Candidate, 1), 14, 20) // 0.7

	before := e.Stats(Front, ByAccuracy).Min
	sel := AccuracySwap{}
	require.True(t, sel.Swap(e, Front, Candidate))
	after := e.Stats(Front, ByAccuracy)
	assert.GreaterOrEqual(t, after.Min, before)
	assert.Equal(t, 0.9, e.Learner(Front, 1).Accuracy())
	assert.Equal(t, 3, e.Size(Front))
	assert.Equal(t, 2, e.Size(Candidate))

	// 0.6 vs 0.7 is still beneficial, then 0.7 vs 0.6 stops
	assert.Equal(t, 1, sel.SwapAll(e, Front, Candidate))
	assert.False(t, sel.Swap(e, Front, Candidate))
	assert.GreaterOrEqual(t, e.Stats(Front, ByAccuracy).Min, e.Stats(Candidate, ByAccuracy).Max)
}

func TestAccuracySwap_EqualScoresDoNotSwap(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 1, 1, 10)
	e.InitGroup(Candidate, 1, 1, 10)
	feed(e.Learner(Front, 0), 10, 20)
	feed(e.Learner(Candidate, 0), 10, 20)
	assert.False(t, AccuracySwap{}.Swap(e, Front, Candidate))
}

func TestAccuracySwap_NothingComparable(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 2, 1, 10)
	e.InitGroup(Candidate, 2, 1, 10)
	assert.False(t, AccuracySwap{}.Swap(e, Front, Candidate))
	assert.Equal(t, 0, AccuracySwap{}.SwapAll(e, Front, Candidate))
}

func TestNoSwap(t *testing.T) {
	e := newTestEnsemble(20)
	e.InitGroup(Front, 1, 1, 10)
	e.InitGroup(Candidate, 1, 1, 10)
	feed(e.Learner(Front, 0), 0, 20)
	feed(e.Learner(Candidate, 0), 20, 20)
	assert.False(t, NoSwap{}.Swap(e, Front, Candidate))
	assert.Equal(t, 0, NoSwap{}.SwapAll(e, Front, Candidate))
}
