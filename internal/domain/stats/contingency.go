package stats

import "math"

const (
	hit  = 0
	miss = 1
)

// ContingencyTable is a 2x2 paired comparison of a "case" strategy against a
// "control" strategy on the same instances. Rows are keyed by whether the
// control was right, columns by whether the case was right.
//
//	             case right   case wrong
//	control right    a            b
//	control wrong    c            d
type ContingencyTable struct {
	table [2][2]uint64
	total uint64
}

// Add records one instance: the true label and both strategies' predictions.
func (t *ContingencyTable) Add(label, casePred, controlPred int) {
	caseIdx := miss
	if casePred == label {
		caseIdx = hit
	}
	controlIdx := miss
	if controlPred == label {
		controlIdx = hit
	}
	t.table[controlIdx][caseIdx]++
	t.total++
}

// Discordant returns b (only the case was wrong) and c (only the control
// was wrong).
func (t *ContingencyTable) Discordant() (b, c uint64) {
	return t.table[hit][miss], t.table[miss][hit]
}

// Cell returns the count for (controlCorrect, caseCorrect).
func (t *ContingencyTable) Cell(controlCorrect, caseCorrect bool) uint64 {
	r, c := miss, miss
	if controlCorrect {
		r = hit
	}
	if caseCorrect {
		c = hit
	}
	return t.table[r][c]
}

// Total returns the number of paired observations.
func (t *ContingencyTable) Total() uint64 {
	return t.total
}

// AccuracyCase returns the case strategy's accuracy, NaN when empty.
func (t *ContingencyTable) AccuracyCase() float64 {
	if t.total == 0 {
		return math.NaN()
	}
	return float64(t.table[hit][hit]+t.table[miss][hit]) / float64(t.total)
}

// AccuracyControl returns the control strategy's accuracy, NaN when empty.
func (t *ContingencyTable) AccuracyControl() float64 {
	if t.total == 0 {
		return math.NaN()
	}
	return float64(t.table[hit][hit]+t.table[hit][miss]) / float64(t.total)
}

// McNemar returns the continuity-corrected McNemar statistic of the table.
func (t *ContingencyTable) McNemar() float64 {
	b, c := t.Discordant()
	return McNemar(b, c)
}

// Reset zeroes all cells.
func (t *ContingencyTable) Reset() {
	t.table = [2][2]uint64{}
	t.total = 0
}

// McNemar computes (|b-c| - 0.5)^2 / (b+c) for discordant counts b and c.
// With no discordant pairs there is no evidence either way and it returns 0.
func McNemar(b, c uint64) float64 {
	n := float64(b + c)
	if n == 0 {
		return 0
	}
	d := math.Abs(float64(b)-float64(c)) - 0.5
	return d * d / n
}
