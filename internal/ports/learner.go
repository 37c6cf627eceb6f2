package ports

// Instance is one labeled example from the stream. Features are dense;
// nominal attributes are expected to be index-encoded by the source adapter.
// Label is the class index in [0, NumClasses). Weight scales training; an
// instance with Weight == 0 is evaluated but never trained on.
type Instance struct {
	Features   []float64
	Label      int
	Weight     float64
	NumClasses int // 0 when the source does not know the class count up front
}

// NumFeatures returns the number of input attributes (class label excluded).
func (i *Instance) NumFeatures() int {
	return len(i.Features)
}

// Classifier is a trainable base learner. The ensemble treats it as opaque:
// it never looks inside, it only trains, queries votes, and resets it.
// The concrete implementation (naive Bayes) lives in internal/adapters/bayes.
//
// Implementations are not required to be safe for concurrent use. The
// ensemble drives each classifier from a single goroutine.
type Classifier interface {
	// Train applies one weighted update. A weight of 0 must be a no-op.
	Train(inst *Instance, weight float64)

	// Predict returns the class vote vector for inst. The vector may be empty
	// or all-zero before the classifier has seen any data. Index = class.
	Predict(inst *Instance) []float64

	// CorrectlyClassifies reports whether the arg-max of Predict matches the
	// instance label.
	CorrectlyClassifies(inst *Instance) bool

	// ResetState discards everything learned. The configuration survives.
	ResetState()

	// Clone returns an untrained classifier with the same configuration.
	Clone() Classifier
}

// DriftDetector watches a stream of 0/1 error indicators and signals when
// the underlying distribution changed. The concrete implementation (DDM)
// lives in internal/adapters/ddm.
type DriftDetector interface {
	// Input feeds one observation: 1 for a misclassification, 0 otherwise.
	Input(x float64)

	// Change reports whether the last Input triggered a drift.
	Change() bool

	// Clone returns a fresh detector with the same configuration and no
	// accumulated statistics.
	Clone() DriftDetector
}

// Sampler draws online-bagging weights. It owns its random state so that
// runs are reproducible from a seed.
type Sampler interface {
	// Poisson returns a non-negative integer drawn from Poisson(lambda).
	Poisson(lambda float64) int
}
