package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync job outcomes.
const (
	OutcomeFinished  = "finished"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// Recorder collects boot and sync metrics of one run. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	syncJobs      *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msde_boot_stage_duration_seconds",
				Help:    "Duration of compose group launches",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"group", "result"},
		),
		syncJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msde_sync_jobs_total",
				Help: "Sync jobs by final outcome",
			},
			[]string{"outcome"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msde_stage_failures_total",
				Help: "Per-stage failures by import phase",
			},
			[]string{"phase"},
		),
	}
	r.registry.MustRegister(r.stageDuration, r.syncJobs, r.stageFailures)
	return r
}

// ObserveBootStage records the duration of one compose group launch.
func (r *Recorder) ObserveBootStage(group string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.stageDuration.WithLabelValues(group, result).Observe(d.Seconds())
}

func (r *Recorder) SyncJob(outcome string) {
	if r == nil {
		return
	}
	r.syncJobs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) StageFailure(phase string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(phase).Inc()
}

// Registry exposes the recorder's metrics, for example to a push gateway.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes every metric in the node-exporter textfile format. An
// empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
