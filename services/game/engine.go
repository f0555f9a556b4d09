package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/devpackage/msdectl/interfaces"
	"github.com/devpackage/msdectl/metrics"
	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/rpc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency  = 10
	DefaultPollBudget   = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// SomeStagesFailed is the closing warning of an import with soft failures.
const SomeStagesFailed = "some stages failed, see warnings above"

var errStillPending = errors.New("sync jobs still pending")

// Engine imports stage groups into the running server, syncs the stages
// flagged for launch and starts them.
type Engine struct {
	Concurrency int
	// PollBudget bounds the backoff phase of status polling.
	PollBudget   time.Duration
	PollInterval time.Duration

	caller   interfaces.Caller
	recorder *metrics.Recorder
	logger   zerolog.Logger
}

func NewEngine(caller interfaces.Caller, cfg models.SyncConfig, recorder *metrics.Recorder, logger zerolog.Logger) *Engine {
	e := &Engine{
		Concurrency:  cfg.Concurrency,
		PollBudget:   cfg.PollBudget,
		PollInterval: DefaultPollInterval,
		caller:       caller,
		recorder:     recorder,
		logger:       logger,
	}
	if e.Concurrency <= 0 {
		e.Concurrency = DefaultConcurrency
	}
	if e.PollBudget <= 0 {
		e.PollBudget = DefaultPollBudget
	}
	return e
}

// ImportGames runs merge, import, sync, poll and start. Failures of single
// stages are recorded in the report and never stop the remaining work; only
// cancellation of ctx returns an error.
func (e *Engine) ImportGames(ctx context.Context, local, remote []models.Stages) (*Report, error) {
	report := newReport()
	groups := Merge(local, remote)
	e.logger.Info().Int("games", len(groups)).Msg("importing games")

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.importGroup(ctx, g, report)
	}

	keys := LaunchKeys(groups)
	jobs, err := e.requestSyncs(ctx, keys)
	if err != nil {
		return report, err
	}
	report.Jobs = jobs
	for _, job := range jobs {
		if job.State == models.SyncFailed {
			e.warn(report, "sync", job.Stage, job.Reason)
		}
	}

	if err := e.poll(ctx, jobs, report); err != nil {
		return report, err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.start(ctx, key, report)
	}

	if report.Failed() {
		e.logger.Warn().Msg(SomeStagesFailed)
	}
	return report, nil
}

// importGroup submits one game. Imports run one at a time: the server names
// new content while importing and concurrent imports clash.
func (e *Engine) importGroup(ctx context.Context, g models.Stages, report *Report) {
	guid := g.GUID()
	key := models.StageKey{GUID: guid}

	payload, err := json.Marshal(g)
	if err != nil {
		e.warn(report, "import", key, err.Error())
		return
	}

	text, err := e.caller.Call(ctx, ImportExpr(payload))
	if err != nil {
		e.warn(report, "import", key, err.Error())
		return
	}
	if !strings.HasSuffix(text, ":ok") {
		e.warn(report, "import", key, text)
		return
	}
	report.Imported = append(report.Imported, guid)
	e.logger.Info().Str("guid", guid.String()).Int("stages", len(g.Stages)).Msg("game imported")
}

// requestSyncs asks for a sync of every key. Requests run with bounded
// concurrency; each worker only touches its own job.
func (e *Engine) requestSyncs(ctx context.Context, keys []models.StageKey) ([]*models.SyncJob, error) {
	jobs := make([]*models.SyncJob, len(keys))
	for i, key := range keys {
		jobs[i] = &models.SyncJob{Stage: key, State: models.SyncRequested}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			res, err := rpc.CallResult(gctx, e.caller, SyncExpr(job.Stage))
			switch {
			case err != nil:
				job.State, job.Reason = models.SyncFailed, err.Error()
			case !res.OK:
				job.State, job.Reason = models.SyncFailed, "sync refused: "+res.Atom
			default:
				job.State, job.JobID = models.SyncPending, res.Value
				e.logger.Debug().Str("stage", job.Stage.String()).Str("job", job.JobID).Msg("sync requested")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, ctx.Err()
}

// poll checks every pending job once, then re-polls the still pending ones
// under exponential backoff until they settle or the budget runs out.
func (e *Engine) poll(ctx context.Context, jobs []*models.SyncJob, report *Report) error {
	pending := pendingJobs(jobs)
	if len(pending) == 0 {
		return nil
	}

	pending = e.pollRound(ctx, pending, false, report)
	if len(pending) == 0 {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.PollInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		pending = e.pollRound(ctx, pending, true, report)
		if len(pending) > 0 {
			return struct{}{}, errStillPending
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(e.PollBudget))

	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	for _, job := range pending {
		job.State = models.SyncUnknown
		job.Reason = fmt.Sprintf("still %q after %s", job.Status, e.PollBudget)
		e.recorder.SyncJob(metrics.OutcomeAbandoned)
		e.warn(report, "poll", job.Stage, "sync abandoned, "+job.Reason)
	}
	return nil
}

// pollRound queries the status of every job concurrently and returns those
// still pending.
func (e *Engine) pollRound(ctx context.Context, jobs []*models.SyncJob, inBackoff bool, report *Report) []*models.SyncJob {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			text, err := e.caller.Call(gctx, StatusExpr(job.JobID))
			if err != nil {
				// transient, asked again next round
				e.logger.Debug().Err(err).Str("job", job.JobID).Msg("sync status unavailable")
				return nil
			}
			job.Status = rpc.Unquote(text)
			job.State = classify(job.Status, inBackoff)
			return nil
		})
	}
	_ = g.Wait()

	var still []*models.SyncJob
	for _, job := range jobs {
		if !job.Terminal() {
			still = append(still, job)
			continue
		}
		switch job.State {
		case models.SyncFinished:
			e.recorder.SyncJob(metrics.OutcomeFinished)
			e.logger.Info().Str("stage", job.Stage.String()).Msg("stage synced")
		case models.SyncFailed:
			job.Reason = job.Status
			report.warn("sync", job.Stage, job.Status)
			e.recorder.StageFailure("sync")
			e.recorder.SyncJob(metrics.OutcomeFailed)
			e.logger.Error().Str("stage", job.Stage.String()).Str("status", job.Status).Msg("sync failed")
		}
	}
	return still
}

func pendingJobs(jobs []*models.SyncJob) []*models.SyncJob {
	var out []*models.SyncJob
	for _, job := range jobs {
		if !job.Terminal() {
			out = append(out, job)
		}
	}
	return out
}

// start launches one stage. An already running stage counts as started.
func (e *Engine) start(ctx context.Context, key models.StageKey, report *Report) {
	text, err := e.caller.Call(ctx, StartExpr(key))
	if err != nil {
		e.warn(report, "start", key, err.Error())
		return
	}

	if res, perr := rpc.Parse(text); perr == nil && res.FailedWith(GameRunningAtom) {
		report.Started = append(report.Started, key)
		e.logger.Info().Str("stage", key.String()).Msg("stage already running")
		return
	}
	if strings.HasSuffix(text, ":ok") {
		report.Started = append(report.Started, key)
		e.logger.Info().Str("stage", key.String()).Msg("stage started")
		return
	}

	e.warn(report, "start", key, "unexpected result "+text)
}

// warn records a soft failure of one stage and logs it.
func (e *Engine) warn(report *Report, phase string, key models.StageKey, reason string) {
	report.warn(phase, key, reason)
	e.recorder.StageFailure(phase)
	e.logger.Warn().Str("phase", phase).Str("stage", key.String()).Msg(reason)
}

// Report summarizes an import.
type Report struct {
	Imported []uuid.UUID
	Jobs     []*models.SyncJob
	Started  []models.StageKey
	Warnings []Warning
}

// Warning is one soft failure.
type Warning struct {
	Phase  string
	Stage  models.StageKey
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s", w.Phase, w.Stage, w.Reason)
}

func newReport() *Report {
	return &Report{}
}

func (r *Report) warn(phase string, stage models.StageKey, reason string) {
	r.Warnings = append(r.Warnings, Warning{Phase: phase, Stage: stage, Reason: reason})
}

// Failed reports whether any stage failed in any phase.
func (r *Report) Failed() bool {
	return len(r.Warnings) > 0
}
