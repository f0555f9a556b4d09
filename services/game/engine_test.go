package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devpackage/msdectl/metrics"
	"github.com/devpackage/msdectl/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer answers the engine's remote calls. Status replies are
// consumed per job; the last one repeats.
type scriptedServer struct {
	mu sync.Mutex

	importReply string
	syncReplies map[models.StageKey]string
	statuses    map[string][]string
	startReply  map[models.StageKey]string

	imports     []string
	statusCalls map[string]int
	starts      []models.StageKey
	inFlight    int
	maxInFlight int
}

func newScriptedServer() *scriptedServer {
	return &scriptedServer{
		importReply: ":ok",
		syncReplies: map[models.StageKey]string{},
		statuses:    map[string][]string{},
		startReply:  map[models.StageKey]string{},
		statusCalls: map[string]int{},
	}
}

func (s *scriptedServer) Call(ctx context.Context, expr string) (string, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(expr, "Game.import_stages(") {
		s.imports = append(s.imports, expr)
		return s.importReply, nil
	}
	for key, reply := range s.syncReplies {
		if expr == SyncExpr(key) {
			return reply, nil
		}
	}
	for job, statuses := range s.statuses {
		if expr == StatusExpr(job) {
			i := s.statusCalls[job]
			s.statusCalls[job]++
			if i >= len(statuses) {
				i = len(statuses) - 1
			}
			return `"` + statuses[i] + `"`, nil
		}
	}
	for _, key := range s.keys() {
		if expr == StartExpr(key) {
			s.starts = append(s.starts, key)
			if reply, ok := s.startReply[key]; ok {
				return reply, nil
			}
			return ":ok", nil
		}
	}
	return "", fmt.Errorf("unexpected expression %q", expr)
}

func (s *scriptedServer) keys() []models.StageKey {
	var out []models.StageKey
	for k := range s.syncReplies {
		out = append(out, k)
	}
	return out
}

// launchable registers a stage that syncs as job and reports statuses.
func (s *scriptedServer) launchable(key models.StageKey, job string, statuses ...string) {
	s.syncReplies[key] = fmt.Sprintf(`{:ok, "%s"}`, job)
	s.statuses[job] = statuses
}

func stage(guid uuid.UUID, launch bool) models.StageConfig {
	return models.StageConfig{GUID: guid, SUID: uuid.New(), Name: "stage", Launch: launch}
}

func keyOf(s models.StageConfig) models.StageKey {
	return models.StageKey{GUID: s.GUID, SUID: s.SUID}
}

func newTestEngine(srv *scriptedServer) *Engine {
	e := NewEngine(srv, models.SyncConfig{Concurrency: 3, PollBudget: 300 * time.Millisecond}, metrics.NewRecorder(), zerolog.Nop())
	e.PollInterval = 5 * time.Millisecond
	return e
}

func TestImportGamesHappyPath(t *testing.T) {
	guid := uuid.New()
	a, b := stage(guid, true), stage(guid, false)
	srv := newScriptedServer()
	srv.launchable(keyOf(a), "job-a", "Setting Up script File System", "Finished")

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{a, b}}}, nil)
	require.NoError(t, err)

	assert.False(t, report.Failed(), report.Warnings)
	assert.Equal(t, []uuid.UUID{guid}, report.Imported)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, models.SyncFinished, report.Jobs[0].State)
	assert.Equal(t, []models.StageKey{keyOf(a)}, report.Started)
	assert.Len(t, srv.imports, 1)
	assert.Contains(t, srv.imports[0], a.SUID.String())
}

func TestFinishedJobIsExcludedFromLaterPolls(t *testing.T) {
	guid := uuid.New()
	fast, slow := stage(guid, true), stage(guid, true)
	srv := newScriptedServer()
	srv.launchable(keyOf(fast), "job-fast", "Compiling", "Finished")
	srv.launchable(keyOf(slow), "job-slow", "Compiling", "Compiling", "Compiling", "Finished")

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{fast, slow}}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, srv.statusCalls["job-fast"])
	assert.Equal(t, 4, srv.statusCalls["job-slow"])
	assert.False(t, report.Failed(), report.Warnings)
}

func TestStuckJobIsAbandonedWithoutStoppingSiblings(t *testing.T) {
	guid := uuid.New()
	stuck, ok, broken := stage(guid, true), stage(guid, true), stage(guid, true)
	srv := newScriptedServer()
	srv.launchable(keyOf(stuck), "job-stuck", "Compiling")
	srv.launchable(keyOf(ok), "job-ok", "Compiling", "Compiling", "Finished")
	srv.launchable(keyOf(broken), "job-broken", "Compiling", "Tuning Error")

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{stuck, ok, broken}}}, nil)
	require.NoError(t, err)

	states := map[string]models.SyncState{}
	for _, j := range report.Jobs {
		states[j.JobID] = j.State
	}
	assert.Equal(t, models.SyncUnknown, states["job-stuck"])
	assert.Equal(t, models.SyncFinished, states["job-ok"])
	assert.Equal(t, models.SyncFailed, states["job-broken"])
	assert.Equal(t, 2, srv.statusCalls["job-broken"])
	assert.Greater(t, srv.statusCalls["job-stuck"], srv.statusCalls["job-ok"])

	// every flagged stage is still started
	assert.ElementsMatch(t, []models.StageKey{keyOf(stuck), keyOf(ok), keyOf(broken)}, srv.starts)
	assert.True(t, report.Failed())
}

func TestScriptSetupIsOnlyTerminalInsideBackoff(t *testing.T) {
	guid := uuid.New()
	s := stage(guid, true)
	srv := newScriptedServer()
	srv.launchable(keyOf(s), "job", "Setting Up script File System")

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{s}}}, nil)
	require.NoError(t, err)

	require.Len(t, report.Jobs, 1)
	assert.Equal(t, models.SyncFailed, report.Jobs[0].State)
	assert.Equal(t, 2, srv.statusCalls["job"])
}

func TestStartAcceptsGameRunningAndWarnsOnFailure(t *testing.T) {
	guid := uuid.New()
	running, failing, plain := stage(guid, true), stage(guid, true), stage(guid, true)
	srv := newScriptedServer()
	for _, s := range []models.StageConfig{running, failing, plain} {
		srv.launchable(keyOf(s), "job-"+s.SUID.String(), "Finished")
	}
	srv.startReply[keyOf(running)] = "{:error, :game_running}"
	srv.startReply[keyOf(failing)] = "{:error, :not_found}"
	srv.startReply[keyOf(plain)] = "\x1b[0m:ok"

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{running, failing, plain}}}, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.StageKey{keyOf(running), keyOf(plain)}, report.Started)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "start", report.Warnings[0].Phase)
	assert.True(t, report.Failed())
}

func TestFailedImportAndRefusedSyncAreSoft(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	a, b := stage(g1, true), stage(g2, true)
	srv := newScriptedServer()
	srv.importReply = "{:error, :invalid}"
	srv.launchable(keyOf(a), "job-a", "Finished")
	srv.syncReplies[keyOf(b)] = "{:error, :unknown_stage}"

	report, err := newTestEngine(srv).ImportGames(context.Background(),
		[]models.Stages{{Stages: []models.StageConfig{a}}, {Stages: []models.StageConfig{b}}}, nil)
	require.NoError(t, err)

	assert.Len(t, srv.imports, 2)
	assert.Empty(t, report.Imported)
	assert.Len(t, srv.starts, 2)

	phases := map[string]int{}
	for _, w := range report.Warnings {
		phases[w.Phase]++
	}
	assert.Equal(t, 2, phases["import"])
	assert.Equal(t, 1, phases["sync"])
}

func TestSyncRequestsRespectConcurrencyLimit(t *testing.T) {
	guid := uuid.New()
	var stages []models.StageConfig
	srv := newScriptedServer()
	for i := 0; i < 12; i++ {
		s := stage(guid, true)
		stages = append(stages, s)
		srv.launchable(keyOf(s), fmt.Sprintf("job-%d", i), "Finished")
	}

	_, err := newTestEngine(srv).ImportGames(context.Background(), []models.Stages{{Stages: stages}}, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, srv.maxInFlight, 3)
}

func TestImportGamesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(newScriptedServer()).ImportGames(ctx,
		[]models.Stages{{Stages: []models.StageConfig{stage(uuid.New(), true)}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
