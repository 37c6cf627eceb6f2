package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. Only one elasticswap process can hold the store.
func diagnoseDBLock(path string) string {
	return fmt.Sprintf("run store %s is locked by another process\n"+
		"  → another elasticswap run or compare may still be running\n"+
		"  → find it:   ps aux | grep elasticswap\n"+
		"  → or use a separate store:  --db other.db  (or --no-save)", path)
}

// storeReader is the part of the run store the runs commands use.
type storeReader interface {
	ListRuns() ([]*ports.RunRecord, error)
	LoadRun(id string) (*ports.RunRecord, error)
	DeleteRun(id string) error
}

var errAmbiguousID = errors.New("ambiguous run id")

// resolveRunID expands a unique prefix of a run ID.
func resolveRunID(s storeReader, prefix string) (string, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s not found", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d runs", errAmbiguousID, prefix, len(matches))
	}
}
