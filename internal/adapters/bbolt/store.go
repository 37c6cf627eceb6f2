// Package bbolt implements the ports.Storage interface using bbolt (embedded B+ tree).
// Run summaries live in the "runs" bucket as JSON keyed by run ID; learning
// curves are stored separately in the "curves" bucket in a compact binary
// form so that listing runs never decodes them. Writes are transactional, so
// a crash mid-write cannot corrupt previously committed runs.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// Bucket keys
var (
	bucketRuns   = []byte("runs")
	bucketCurves = []byte("curves")
)

// Store implements ports.Storage backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.Storage = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists run, replacing any record with the same ID.
func (s *Store) SaveRun(run *ports.RunRecord) error {
	if run == nil {
		return fmt.Errorf("nil run")
	}
	if run.ID == "" {
		return fmt.Errorf("run without id")
	}

	summary := *run
	summary.Curve = nil
	data, err := json.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	curve := encodeCurve(run.Curve)

	return s.db.Update(func(tx *bolt.Tx) error {
		rb, err := tx.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		cb, err := tx.CreateBucketIfNotExists(bucketCurves)
		if err != nil {
			return err
		}
		if err := rb.Put([]byte(run.ID), data); err != nil {
			return err
		}
		if len(run.Curve) == 0 {
			return cb.Delete([]byte(run.ID))
		}
		return cb.Put([]byte(run.ID), curve)
	})
}

// LoadRun retrieves a run with its learning curve.
// Returns nil, nil if no such run exists.
func (s *Store) LoadRun(id string) (*ports.RunRecord, error) {
	var data, curve []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRuns)
		if rb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := rb.Get([]byte(id)); v != nil {
			data = append([]byte(nil), v...)
		}
		if cb := tx.Bucket(bucketCurves); cb != nil {
			if v := cb.Get([]byte(id)); v != nil {
				curve = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var run ports.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	if curve != nil {
		if run.Curve, err = decodeCurve(curve); err != nil {
			return nil, fmt.Errorf("decode curve %s: %w", id, err)
		}
	}
	return &run, nil
}

// ListRuns returns all runs without curves, newest first.
func (s *Store) ListRuns() ([]*ports.RunRecord, error) {
	var runs []*ports.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRuns)
		if rb == nil {
			return nil
		}
		return rb.ForEach(func(k, v []byte) error {
			var run ports.RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", k, err)
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Started.After(runs[j].Started)
	})
	return runs, nil
}

// DeleteRun removes a run and its curve.
// Idempotent: deleting a nonexistent run is not an error.
func (s *Store) DeleteRun(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketCurves} {
			b := tx.Bucket(name)
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(id)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
}
