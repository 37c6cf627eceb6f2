package ensemble

import (
	"fmt"
	"math"
)

// GroupID names one of the ensemble's learner groups.
type GroupID int

const (
	// Front learners vote.
	Front GroupID = iota
	// Candidate learners train in the background and are swapped into the
	// front when they outperform its weakest member.
	Candidate
	// Grow is the staging group whose learners become front members when
	// the ensemble grows.
	Grow

	numGroups
)

func (g GroupID) String() string {
	switch g {
	case Front:
		return "front"
	case Candidate:
		return "candidate"
	case Grow:
		return "grow"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

type group struct {
	slots []*Learner // len == max; slots[size:] are nil
	size  int
	min   int
	init  bool
}

// Ensemble is a set of fixed-capacity learner groups sharing one global cap.
// The sum of live learners over all groups never exceeds MaxSize.
type Ensemble struct {
	groups  [numGroups]group
	maxSize int
	alloc   *Allocator
	now     uint64
}

// New creates an empty ensemble. Groups must be initialized with InitGroup
// before use.
func New(maxSize int, alloc *Allocator) *Ensemble {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Ensemble{maxSize: maxSize, alloc: alloc}
}

// SetTime sets the instance count stamped on newly allocated learners.
func (e *Ensemble) SetTime(now uint64) { e.now = now }

// Time returns the current instance count.
func (e *Ensemble) Time() uint64 { return e.now }

// InitGroup allocates the slots of g and populates max(min, initial)
// learners, subject to the global cap. max is clamped to MaxSize.
// Returns the resulting group size.
func (e *Ensemble) InitGroup(g GroupID, initial, min, max int) int {
	if max > e.maxSize {
		max = e.maxSize
	}
	if max < 0 {
		max = 0
	}
	if min < 0 {
		min = 0
	}
	if min > max {
		min = max
	}
	grp := &e.groups[g]
	grp.slots = make([]*Learner, max)
	grp.size = 0
	grp.min = min
	grp.init = true

	n := initial
	if n < min {
		n = min
	}
	e.Grow(g, n)
	return grp.size
}

// Grow adds up to k learners to the tail of g. It returns the new group
// size, or -1 when nothing could be added (k <= 0, group full or global cap
// reached). Sizes are unchanged in the -1 case.
func (e *Ensemble) Grow(g GroupID, k int) int {
	grp := &e.groups[g]
	if !grp.init {
		return -1
	}
	granted := k
	if r := len(grp.slots) - grp.size; r < granted {
		granted = r
	}
	if r := e.maxSize - e.Total(); r < granted {
		granted = r
	}
	if granted <= 0 {
		return -1
	}
	for i := 0; i < granted; i++ {
		grp.slots[grp.size] = e.alloc.New(e.now)
		grp.size++
	}
	return grp.size
}

// Shrink removes up to k learners from the tail of g without going below
// the group minimum. Returns the number removed.
func (e *Ensemble) Shrink(g GroupID, k int) int {
	grp := &e.groups[g]
	granted := grp.size - grp.min
	if k < granted {
		granted = k
	}
	if granted <= 0 {
		return 0
	}
	for i := 0; i < granted; i++ {
		grp.size--
		grp.slots[grp.size] = nil
	}
	return granted
}

// Swap exchanges the learners in two slots. Group sizes are unchanged.
// Both indexes must address live slots.
func (e *Ensemble) Swap(ga GroupID, ia int, gb GroupID, ib int) {
	a, b := &e.groups[ga], &e.groups[gb]
	if ia < 0 || ia >= a.size || ib < 0 || ib >= b.size {
		panic(fmt.Sprintf("ensemble: swap out of range: %s[%d/%d] %s[%d/%d]",
			ga, ia, a.size, gb, ib, b.size))
	}
	a.slots[ia], b.slots[ib] = b.slots[ib], a.slots[ia]
}

// ResetGroup restarts every live learner of g at the current time.
func (e *Ensemble) ResetGroup(g GroupID) {
	for _, l := range e.Learners(g) {
		l.Reset(e.now)
	}
}

// Learner returns the learner in slot i of g, or nil for a dead or
// out-of-range slot.
func (e *Ensemble) Learner(g GroupID, i int) *Learner {
	grp := &e.groups[g]
	if i < 0 || i >= grp.size {
		return nil
	}
	return grp.slots[i]
}

// Learners returns the live slots of g. The slice aliases the group and is
// only valid until the next grow, shrink or swap.
func (e *Ensemble) Learners(g GroupID) []*Learner {
	grp := &e.groups[g]
	return grp.slots[:grp.size]
}

// Size returns the number of live learners in g.
func (e *Ensemble) Size(g GroupID) int { return e.groups[g].size }

// Cap returns the slot capacity of g.
func (e *Ensemble) Cap(g GroupID) int { return len(e.groups[g].slots) }

// Min returns the minimum size of g.
func (e *Ensemble) Min(g GroupID) int { return e.groups[g].min }

// Initialized reports whether InitGroup has been called for g.
func (e *Ensemble) Initialized(g GroupID) bool { return e.groups[g].init }

// MaxSize returns the global learner cap.
func (e *Ensemble) MaxSize() int { return e.maxSize }

// Total returns the number of live learners over all groups.
func (e *Ensemble) Total() int {
	n := 0
	for i := range e.groups {
		n += e.groups[i].size
	}
	return n
}

// FindMin returns the index of the lowest-scoring learner in g. Learners
// with a NaN score are skipped; the first one wins ties. Returns -1 when no
// learner is comparable.
func (e *Ensemble) FindMin(g GroupID, score ScoreFunc) int {
	return e.scan(g, score, nil, func(v, best float64) bool { return v < best })
}

// FindMax returns the index of the highest-scoring learner in g, with the
// same conventions as FindMin.
func (e *Ensemble) FindMax(g GroupID, score ScoreFunc) int {
	return e.scan(g, score, nil, func(v, best float64) bool { return v > best })
}

// FindMaxSkip is FindMax restricted to mature learners. When no learner is
// mature it falls back to FindMax.
func (e *Ensemble) FindMaxSkip(g GroupID, score ScoreFunc) int {
	i := e.scan(g, score, (*Learner).Mature, func(v, best float64) bool { return v > best })
	if i < 0 {
		return e.FindMax(g, score)
	}
	return i
}

// FindMoveMin moves the lowest-scoring learner to the last live slot and
// returns that index, or -1.
func (e *Ensemble) FindMoveMin(g GroupID, score ScoreFunc) int {
	i := e.FindMin(g, score)
	if i < 0 {
		return -1
	}
	last := e.groups[g].size - 1
	e.Swap(g, i, g, last)
	return last
}

// FindMoveMax moves the highest-scoring learner to slot 0 and returns 0,
// or -1.
func (e *Ensemble) FindMoveMax(g GroupID, score ScoreFunc) int {
	i := e.FindMax(g, score)
	if i < 0 {
		return -1
	}
	e.Swap(g, i, g, 0)
	return 0
}

func (e *Ensemble) scan(g GroupID, score ScoreFunc, keep func(*Learner) bool, better func(v, best float64) bool) int {
	idx := -1
	best := math.NaN()
	for i, l := range e.Learners(g) {
		if keep != nil && !keep(l) {
			continue
		}
		v := score(l)
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || better(v, best) {
			idx, best = i, v
		}
	}
	return idx
}

// GroupStats summarizes the comparable accuracies of one group.
type GroupStats struct {
	Size       int
	Comparable int
	Mean       float64
	Min        float64
	Max        float64
}

// Stats summarizes g by score. Mean, Min and Max are NaN when no learner is
// comparable.
func (e *Ensemble) Stats(g GroupID, score ScoreFunc) GroupStats {
	s := GroupStats{Size: e.Size(g), Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	sum := 0.0
	for _, l := range e.Learners(g) {
		v := score(l)
		if math.IsNaN(v) {
			continue
		}
		if s.Comparable == 0 || v < s.Min {
			s.Min = v
		}
		if s.Comparable == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Comparable++
	}
	if s.Comparable > 0 {
		s.Mean = sum / float64(s.Comparable)
	}
	return s
}
