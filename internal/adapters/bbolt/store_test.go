package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestRun creates a realistic run record.
func makeTestRun(id string, started time.Time) *ports.RunRecord {
	return &ports.RunRecord{
		ID:            id,
		Source:        "sea",
		Variant:       "arf",
		Advisor:       "ema",
		Started:       started.UTC().Truncate(time.Second),
		Duration:      1.25,
		Instances:     3000,
		Correct:       2610,
		Accuracy:      0.87,
		Grows:         4,
		Shrinks:       1,
		Swaps:         57,
		Drifts:        9,
		FrontSize:     13,
		CandidateSize: 10,
		MaxFrontSize:  14,
		MinFrontSize:  10,
		Config:        map[string]any{"variant": "arf", "lambda": 6.0},
		Curve: []ports.CurvePoint{
			{Instances: 1000, Accuracy: 0.81, WindowAccuracy: 0.81, FrontSize: 10},
			{Instances: 2000, Accuracy: 0.85, WindowAccuracy: 0.89, FrontSize: 12},
			{Instances: 3000, Accuracy: 0.87, WindowAccuracy: 0.91, FrontSize: 13},
		},
	}
}

func TestStore_SaveLoadRun_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	run := makeTestRun("run-1", time.Now())

	require.NoError(t, store.SaveRun(run))
	got, err := store.LoadRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.Curve, got.Curve)
	assert.Equal(t, run.Instances, got.Instances)
	assert.Equal(t, run.Accuracy, got.Accuracy)
	assert.Equal(t, run.FrontSize, got.FrontSize)
	assert.True(t, run.Started.Equal(got.Started))
	assert.Equal(t, "arf", got.Config["variant"])
	assert.Equal(t, 6.0, got.Config["lambda"])
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.LoadRun("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveRun(nil))
	assert.Error(t, store.SaveRun(&ports.RunRecord{}))
}

func TestStore_OverwriteDropsCurve(t *testing.T) {
	store, _ := newTestStore(t)
	run := makeTestRun("run-1", time.Now())
	require.NoError(t, store.SaveRun(run))

	run.Curve = nil
	run.Accuracy = 0.5
	require.NoError(t, store.SaveRun(run))

	got, err := store.LoadRun("run-1")
	require.NoError(t, err)
	assert.Nil(t, got.Curve)
	assert.Equal(t, 0.5, got.Accuracy)
}

func TestStore_ListRuns_NewestFirstWithoutCurves(t *testing.T) {
	store, _ := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "c", "a"} {
		require.NoError(t, store.SaveRun(makeTestRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, "c", runs[1].ID)
	assert.Equal(t, "b", runs[2].ID)
	for _, r := range runs {
		assert.Nil(t, r.Curve)
	}
}

func TestStore_ListRuns_Empty(t *testing.T) {
	store, _ := newTestStore(t)
	runs, err := store.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_DeleteRun(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.DeleteRun("never-saved"), "delete on empty db is a no-op")

	require.NoError(t, store.SaveRun(makeTestRun("run-1", time.Now())))
	require.NoError(t, store.DeleteRun("run-1"))
	require.NoError(t, store.DeleteRun("run-1"), "idempotent")

	got, err := store.LoadRun("run-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CrashRecovery(t *testing.T) {
	// Committed transactions survive close and reopen.
	path := filepath.Join(t.TempDir(), "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(makeTestRun("run-1", time.Now())))
	require.NoError(t, store.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.LoadRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Curve, 3)
}

func TestStore_ConcurrentReads(t *testing.T) {
	store, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(makeTestRun(fmt.Sprintf("run-%d", i), time.Now())))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run, err := store.LoadRun(fmt.Sprintf("run-%d", i%5))
			if err == nil && run == nil {
				err = fmt.Errorf("run-%d missing", i%5)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestCurveEncoding(t *testing.T) {
	points := make([]ports.CurvePoint, 500)
	for i := range points {
		points[i] = ports.CurvePoint{
			Instances:      uint64(i+1) * 1000,
			Accuracy:       0.5 + float64(i)/2000,
			WindowAccuracy: 0.9,
			FrontSize:      10 + i%5,
		}
	}
	data := encodeCurve(points)
	assert.Less(t, len(data), 4+len(points)*pointSize, "compressed")

	got, err := decodeCurve(data)
	require.NoError(t, err)
	assert.Equal(t, points, got)

	empty, err := decodeCurve(encodeCurve(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = decodeCurve([]byte{9, 1, 2})
	assert.Error(t, err)
}

// =============================================================================
// Lock contention tests: the 1s timeout prevents hangs
// =============================================================================

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another process/goroutine holds the bbolt exclusive lock,
	// a second open should timeout in ~1 second, not hang forever.
	_, path := newTestStore(t)

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2, "store should be nil on timeout")
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should wait ~1s for the configured timeout")
}

func TestStore_OpenAfterClose_Succeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "released.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.SaveRun(makeTestRun("run-1", time.Now())))
	store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)
	require.NoError(t, err, "open after close should succeed")
	defer store2.Close()
	assert.Less(t, elapsed, 500*time.Millisecond, "should open instantly after lock released")

	runs, err := store2.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
