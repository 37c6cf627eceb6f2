// Package elastic decides when the voting group of an ensemble should grow
// or shrink. An Advisor watches three counterfactual predictions per
// instance (the ensemble as it would vote one step smaller, as it is, and
// one step larger) and recommends a structural change only when the
// evidence favors it.
package elastic

import "fmt"

// Action is a resize recommendation.
type Action int

const (
	Shrink Action = -1
	Keep   Action = 0
	Grow   Action = 1
)

func (a Action) String() string {
	switch a {
	case Shrink:
		return "shrink"
	case Keep:
		return "keep"
	case Grow:
		return "grow"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Advisor accumulates counterfactual outcomes and recommends resizes.
//
// AddResults is called for every trained instance. ShouldResize may be
// queried at any interval. After acting on a recommendation the caller
// reports it through Grow or Shrink, which start a new epoch.
type Advisor interface {
	// AddResults records the true label and the shrunk, default and grown
	// predictions for one instance.
	AddResults(y, ys, yd, yg int)

	ShouldResize() Action

	// Grow and Shrink acknowledge an applied resize and clear the epoch.
	Grow()
	Shrink()

	// Reset clears the epoch without recording an operation.
	Reset()
}
