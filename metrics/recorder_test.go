package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.SyncJob(OutcomeFinished)
	r.SyncJob(OutcomeFinished)
	r.SyncJob(OutcomeAbandoned)
	r.StageFailure("start")
	r.ObserveBootStage("base", 2*time.Second, nil)
	r.ObserveBootStage("main", time.Second, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.syncJobs.WithLabelValues(OutcomeFinished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncJobs.WithLabelValues(OutcomeAbandoned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("start")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.stageDuration))

	n, err := testutil.GatherAndCount(r.Registry(), "msde_sync_jobs_total", "msde_stage_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.SyncJob(OutcomeFailed)
	r.ObserveBootStage("base", time.Second, nil)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, r.Registry())
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.SyncJob(OutcomeFailed)

	path := filepath.Join(t.TempDir(), "msde.prom")
	require.NoError(t, r.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `msde_sync_jobs_total{outcome="failed"} 1`)
}
