package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/initsys"
	"wurstmineberg/worldctl/internal/retry"
)

// fakeConsole records executed commands and answers from a script.
type fakeConsole struct {
	mu       sync.Mutex
	commands []string
	fail     map[string]error
	closed   bool
}

func (f *fakeConsole) Execute(command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if err, ok := f.fail[command]; ok {
		return "", err
	}
	return "ok", nil
}

func (f *fakeConsole) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConsole) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// dialOK always hands out the given console.
func dialOK(console *fakeConsole) ConsoleDialer {
	return func(ctx context.Context, ep domain.Endpoint) (Console, error) {
		return console, nil
	}
}

// dialDown simulates an unreachable endpoint.
func dialDown(ctx context.Context, ep domain.Endpoint) (Console, error) {
	return nil, errors.New("connection refused")
}

func testInstance() domain.Instance {
	return domain.Instance{
		Name:      "alpha",
		Directory: "/srv/worlds/alpha",
		RCON:      domain.Endpoint{Host: "localhost", Port: 25575, Password: "secret"},
		GamePort:  25565,
	}
}

func testController(init *initsys.Mock, dial ConsoleDialer) *Controller {
	return &Controller{
		Init:         init,
		Dial:         dial,
		StartupRetry: retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond},
		StopGrace:    time.Second,
	}
}

func TestStart_Stopped(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	state, err := c.Start(context.Background(), testInstance())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, state)
	assert.Contains(t, init.Calls(), "start minecraft@alpha")
}

func TestStart_AlreadyRunningIsNoOp(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	state, err := c.Start(context.Background(), testInstance())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, state)
	assert.NotContains(t, init.Calls(), "start minecraft@alpha")
}

func TestStart_PollExhaustionReportsUnknown(t *testing.T) {
	init := initsys.NewMock()
	c := testController(init, dialDown)

	state, err := c.Start(context.Background(), testInstance())
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnknown, state)
	assert.Contains(t, init.Calls(), "start minecraft@alpha")
}

func TestStart_ReadyOnThirdAttempt(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	attempts := 0
	dial := func(ctx context.Context, ep domain.Endpoint) (Console, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return console, nil
	}
	c := testController(init, dial)

	state, err := c.Start(context.Background(), testInstance())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, state)
	assert.Equal(t, 3, attempts)
}

func TestStart_InitFailure(t *testing.T) {
	init := initsys.NewMock()
	init.StartErr = domain.ErrInitSystem
	c := testController(init, dialDown)

	_, err := c.Start(context.Background(), testInstance())
	assert.ErrorIs(t, err, domain.ErrInitSystem)
}

func TestStop_GracefulSequence(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	require.NoError(t, c.Stop(context.Background(), testInstance()))

	assert.Equal(t, []string{"say " + shutdownNotice, "save-all", "stop"}, console.executed())
	assert.True(t, console.closed)
	calls := init.Calls()
	assert.Contains(t, calls, "stop minecraft@alpha")
	assert.Contains(t, calls, "wait-inactive minecraft@alpha")
}

func TestStop_NotRunningIsNoOp(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	require.NoError(t, c.Stop(context.Background(), testInstance()))

	assert.Empty(t, console.executed())
	assert.NotContains(t, init.Calls(), "stop minecraft@alpha")
}

func TestStop_ConsoleDownFallsBackToForcefulStop(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	var out strings.Builder
	c := testController(init, dialDown)
	c.Out = &out

	require.NoError(t, c.Stop(context.Background(), testInstance()))

	assert.Contains(t, init.Calls(), "stop minecraft@alpha")
	assert.Contains(t, out.String(), "forcefully")
}

func TestRestart_StopFailureAborts(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	init.StopErr = domain.ErrInitSystem
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	_, err := c.Restart(context.Background(), testInstance())
	assert.ErrorIs(t, err, domain.ErrInitSystem)
	assert.NotContains(t, init.Calls(), "start minecraft@alpha")
}

func TestRestart_FullCycle(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	state, err := c.Restart(context.Background(), testInstance())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, state)

	calls := init.Calls()
	assert.Contains(t, calls, "stop minecraft@alpha")
	assert.Contains(t, calls, "start minecraft@alpha")
}

func TestBackup_BracketsSaves(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	inst := testInstance()
	inst.Directory = filepath.Join(t.TempDir(), "alpha")
	require.NoError(t, os.MkdirAll(inst.Directory, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inst.Directory, "level.dat"), []byte("x"), 0o644))

	dest := t.TempDir()
	path, err := c.Backup(context.Background(), inst, dest)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, []string{
		"say Backing up...",
		"save-off",
		"save-all",
		"save-on",
		"say Backup complete.",
	}, console.executed())
}

func TestBackup_ReenablesSavesOnCopyFailure(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	inst := testInstance()
	inst.Directory = filepath.Join(t.TempDir(), "does-not-exist")

	_, err := c.Backup(context.Background(), inst, t.TempDir())
	require.Error(t, err)

	executed := console.executed()
	assert.Contains(t, executed, "save-off")
	assert.Contains(t, executed, "save-on")
	assert.NotContains(t, executed, "say Backup complete.")
}

func TestBackup_RequiresRunningWorld(t *testing.T) {
	init := initsys.NewMock()
	c := testController(init, dialDown)

	_, err := c.Backup(context.Background(), testInstance(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a running world")
}

func TestSaves_OffFlushes(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	require.NoError(t, c.Saves(context.Background(), testInstance(), false))
	assert.Equal(t, []string{"save-off", "save-all"}, console.executed())
}

func TestSaves_On(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	require.NoError(t, c.Saves(context.Background(), testInstance(), true))
	assert.Equal(t, []string{"save-on"}, console.executed())
}

func TestCommand_Passthrough(t *testing.T) {
	init := initsys.NewMock()
	console := &fakeConsole{}
	c := testController(init, dialOK(console))

	reply, err := c.Command(context.Background(), testInstance(), "list")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, []string{"list"}, console.executed())
	assert.True(t, console.closed)
}

func TestStatus_DerivedStates(t *testing.T) {
	tests := []struct {
		name      string
		unit      initsys.ActiveState
		reachable bool
		want      domain.State
	}{
		{"inactive unit", initsys.Inactive, false, domain.StateStopped},
		{"failed unit", initsys.Failed, false, domain.StateStopped},
		{"activating unit", initsys.Activating, false, domain.StateStarting},
		{"deactivating unit", initsys.Deactivating, false, domain.StateStopping},
		{"active but console down", initsys.Active, false, domain.StateStarting},
		{"active and reachable", initsys.Active, true, domain.StateRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			init := initsys.NewMock()
			init.SetState("minecraft@alpha", tt.unit)
			dial := dialDown
			if tt.reachable {
				dial = dialOK(&fakeConsole{})
			}
			c := testController(init, dial)

			report, err := c.Status(context.Background(), testInstance())
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.State)
			assert.Equal(t, tt.unit, report.Unit)
			assert.Equal(t, tt.reachable, report.ConsoleReachable)
		})
	}
}

func TestStatus_ProbeFailureReportsUnknown(t *testing.T) {
	init := initsys.NewMock()
	init.StatusErr = domain.ErrInitSystem
	c := testController(init, dialDown)

	report, err := c.Status(context.Background(), testInstance())
	assert.ErrorIs(t, err, domain.ErrInitSystem)
	assert.Equal(t, domain.StateUnknown, report.State)
}

func TestStatus_IncludesPing(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	c := testController(init, dialOK(&fakeConsole{}))
	c.Ping = func(host string, port int) (PingInfo, error) {
		return PingInfo{Version: "1.20.1", PlayersOnline: 3, PlayersMax: 20}, nil
	}

	report, err := c.Status(context.Background(), testInstance())
	require.NoError(t, err)
	require.True(t, report.Pinged)
	assert.Equal(t, "1.20.1", report.Ping.Version)
	assert.Equal(t, 3, report.Ping.PlayersOnline)
}

// Same-world operations serialize; the second Stop observes the state
// the first one left behind instead of interleaving with it.
func TestSameWorldOperationsSerialize(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)

	release := make(chan struct{})
	slowConsole := &fakeConsole{}
	dial := func(ctx context.Context, ep domain.Endpoint) (Console, error) {
		<-release
		return slowConsole, nil
	}
	c := testController(init, dial)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Stop(context.Background(), testInstance())
	}()
	go func() {
		defer wg.Done()
		c.Stop(context.Background(), testInstance())
	}()

	close(release)
	wg.Wait()

	// Only the first Stop runs the console sequence; the second sees
	// an inactive unit and no-ops.
	var stops int
	for _, call := range init.Calls() {
		if call == "stop minecraft@alpha" {
			stops++
		}
	}
	assert.Equal(t, 1, stops)
}

func TestDistinctWorldsRunConcurrently(t *testing.T) {
	init := initsys.NewMock()
	init.SetState("minecraft@alpha", initsys.Active)
	init.SetState("minecraft@beta", initsys.Active)

	alphaHolds := make(chan struct{})
	betaDone := make(chan struct{})
	dial := func(ctx context.Context, ep domain.Endpoint) (Console, error) {
		if ep.Port == 25575 {
			// alpha's console blocks until beta finished, which can
			// only happen if beta never waited for alpha's lock.
			select {
			case <-betaDone:
			case <-time.After(5 * time.Second):
				t.Error("beta did not run concurrently with alpha")
			}
			close(alphaHolds)
		}
		return &fakeConsole{}, nil
	}
	c := testController(init, dial)

	beta := domain.Instance{
		Name: "beta",
		RCON: domain.Endpoint{Host: "localhost", Port: 25576, Password: "secret"},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Stop(context.Background(), testInstance())
	}()
	go func() {
		defer wg.Done()
		c.Stop(context.Background(), beta)
		close(betaDone)
	}()
	wg.Wait()
	<-alphaHolds
}
