// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "time"

// Storage persists finished runs to durable storage.
// The backing store (bbolt) keeps one record per run ID. Concurrent reads are
// safe; writes are serialized by the adapter.
//
// Crash safety: SaveRun must be transactional. A crash mid-write must not
// corrupt previously committed runs.
type Storage interface {
	// SaveRun persists a run record. Overwrites any prior record with the
	// same ID.
	SaveRun(run *RunRecord) error

	// LoadRun retrieves a run by ID.
	// Returns nil, nil if no such run exists.
	LoadRun(id string) (*RunRecord, error)

	// ListRuns returns all stored runs ordered by start time, newest first.
	// Learning curves are omitted to keep listings cheap.
	ListRuns() ([]*RunRecord, error)

	// DeleteRun removes a run.
	// Idempotent: deleting a nonexistent run is not an error.
	DeleteRun(id string) error
}

// RunRecord summarizes one prequential evaluation of a controller variant
// over a stream.
type RunRecord struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`  // input path or synthetic generator name
	Variant  string    `json:"variant"` // controller variant
	Advisor  string    `json:"advisor"` // resize advisor ("" for swap-only)
	Started  time.Time `json:"started"`
	Duration float64   `json:"duration_sec"`

	Instances uint64  `json:"instances"`
	Correct   uint64  `json:"correct"`
	Accuracy  float64 `json:"accuracy"`

	Grows         uint64 `json:"grows"`
	Shrinks       uint64 `json:"shrinks"`
	Swaps         uint64 `json:"swaps"`
	Drifts        uint64 `json:"drifts"`
	FrontSize     int    `json:"front_size"`
	CandidateSize int    `json:"candidate_size"`
	MaxFrontSize  int    `json:"max_front_size"`
	MinFrontSize  int    `json:"min_front_size"`

	Config map[string]any `json:"config,omitempty"`
	Curve  []CurvePoint   `json:"curve,omitempty"`
}

// CurvePoint is one sample of the learning curve.
type CurvePoint struct {
	Instances      uint64  `json:"instances"`
	Accuracy       float64 `json:"accuracy"`        // cumulative
	WindowAccuracy float64 `json:"window_accuracy"` // sliding window
	FrontSize      int     `json:"front_size"`
}
