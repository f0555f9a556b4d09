package models

// SyncState is the lifecycle position of a SyncJob.
type SyncState string

const (
	SyncRequested SyncState = "requested"
	SyncPending   SyncState = "pending"
	SyncFinished  SyncState = "finished"
	SyncFailed    SyncState = "failed"
	SyncUnknown   SyncState = "unknown"
)

// SyncJob tracks one stage through sync request, polling and retirement.
type SyncJob struct {
	Stage  StageKey
	JobID  string
	State  SyncState
	Status string // last raw status reported by the server
	Reason string
}

// Terminal reports whether the job needs no further polling.
func (j *SyncJob) Terminal() bool {
	return j.State == SyncFinished || j.State == SyncFailed
}
