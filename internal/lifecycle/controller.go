// Package lifecycle drives world state transitions: graceful start,
// stop, restart, and backup, plus the combined status probe. All
// transitions go through the init system for process supervision and
// through RCON for in-game coordination (shutdown notices, save
// flushing). Operations on distinct worlds run concurrently; operations
// on the same world are serialized for the full duration of the
// transition, network round trips included.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"wurstmineberg/worldctl/internal/backup"
	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/initsys"
	"wurstmineberg/worldctl/internal/opstore"
	"wurstmineberg/worldctl/internal/rcon"
	"wurstmineberg/worldctl/internal/retry"
)

// shutdownNotice is broadcast to players before a graceful stop.
const shutdownNotice = "SERVER SHUTTING DOWN. Saving map..."

// Console is an authenticated administrative connection to a running
// world. Satisfied by *rcon.Session; tests substitute fakes.
type Console interface {
	Execute(command string) (string, error)
	Close() error
}

// ConsoleDialer opens an authenticated console to an endpoint. A dialer
// must return a ready-to-use console or an error, never a half
// authenticated session.
type ConsoleDialer func(ctx context.Context, ep domain.Endpoint) (Console, error)

// DialConsole is the production dialer backed by the RCON client.
func DialConsole(ctx context.Context, ep domain.Endpoint) (Console, error) {
	session, err := rcon.Connect(ctx, ep)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Controller performs lifecycle operations on world instances.
type Controller struct {
	// Init is the process supervisor boundary. Required.
	Init initsys.Client

	// Dial opens consoles. Defaults to DialConsole.
	Dial ConsoleDialer

	// Ping probes the game port for the status report. Optional; a nil
	// pinger disables the player-count half of status.
	Ping Pinger

	// Ops records operation history. Optional; a nil repository
	// disables recording.
	Ops opstore.Repository

	// Out receives human-readable progress lines. Optional.
	Out io.Writer

	// StartupRetry bounds the post-start readiness poll.
	StartupRetry retry.Config

	// StopGrace bounds how long Stop waits for the unit to reach
	// inactive after the shutdown sequence.
	StopGrace time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController returns a controller with production defaults.
func NewController(init initsys.Client) *Controller {
	return &Controller{
		Init: init,
		Dial: DialConsole,
		Ping: PingWorld,
		StartupRetry: retry.Config{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		StopGrace: 2 * time.Minute,
	}
}

// lockInstance serializes operations on one world. The mutex is held
// for the whole transition so a concurrent stop cannot interleave with
// a running backup on the same world.
func (c *Controller) lockInstance(name string) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[string]*sync.Mutex)
	}
	l, ok := c.locks[name]
	if !ok {
		l = &sync.Mutex{}
		c.locks[name] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (c *Controller) dial(ctx context.Context, ep domain.Endpoint) (Console, error) {
	if c.Dial != nil {
		return c.Dial(ctx, ep)
	}
	return DialConsole(ctx, ep)
}

func (c *Controller) printf(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format+"\n", args...)
	}
}

// begin records the operation as running. A nil return means history is
// disabled or unavailable; finish tolerates nil.
func (c *Controller) begin(world, operation, detail string) *opstore.Record {
	if c.Ops == nil {
		return nil
	}
	rec := &opstore.Record{World: world, Operation: operation, Detail: detail}
	if err := c.Ops.Save(rec); err != nil {
		c.printf("warning: could not record operation: %v", err)
		return nil
	}
	return rec
}

func (c *Controller) finish(rec *opstore.Record, opErr error) {
	if rec == nil {
		return
	}
	if opErr != nil {
		rec.Status = opstore.StatusError
		rec.ErrorMessage = opErr.Error()
	} else {
		rec.Status = opstore.StatusSuccess
	}
	if err := c.Ops.Save(rec); err != nil {
		c.printf("warning: could not record operation outcome: %v", err)
	}
}

// Start brings a world up and waits for it to accept administrative
// sessions. Starting an already running world is a no-op. When the
// readiness poll exhausts its attempts the world is reported as
// StateUnknown with a nil error: the server may simply still be
// loading chunks.
func (c *Controller) Start(ctx context.Context, inst domain.Instance) (domain.State, error) {
	defer c.lockInstance(inst.Name)()

	if state, _ := c.observe(ctx, inst); state == domain.StateRunning {
		c.printf("%s is already running", inst.Name)
		return domain.StateRunning, nil
	}

	rec := c.begin(inst.Name, "start", "")
	state, err := c.startLocked(ctx, inst)
	c.finish(rec, err)
	return state, err
}

func (c *Controller) startLocked(ctx context.Context, inst domain.Instance) (domain.State, error) {
	c.printf("starting %s...", inst.Name)
	if err := c.Init.Start(ctx, inst.Unit()); err != nil {
		return domain.StateStopped, err
	}

	cfg := c.StartupRetry
	cfg.OnRetry = func(attempt int, delay time.Duration) {
		c.printf("%s not ready yet (attempt %d), retrying in %s", inst.Name, attempt, delay.Round(time.Millisecond))
	}

	err := retry.Do(ctx, cfg, retry.Always, func() error {
		console, err := c.dial(ctx, inst.RCON)
		if err != nil {
			return err
		}
		return console.Close()
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.StateUnknown, ctx.Err()
		}
		c.printf("%s did not accept a console session yet; it may still be starting", inst.Name)
		return domain.StateUnknown, nil
	}

	c.printf("%s is running", inst.Name)
	return domain.StateRunning, nil
}

// Stop shuts a world down gracefully: an in-game notice and a save
// flush over RCON, the server's own stop command, then the init system
// stop with a bounded wait for the unit to wind down. When the console
// is unreachable the world is stopped forcefully through the init
// system alone. Stopping a stopped world is a no-op.
func (c *Controller) Stop(ctx context.Context, inst domain.Instance) error {
	defer c.lockInstance(inst.Name)()
	return c.stopLocked(ctx, inst)
}

func (c *Controller) stopLocked(ctx context.Context, inst domain.Instance) error {
	unitState, err := c.Init.Status(ctx, inst.Unit())
	if err != nil {
		return err
	}
	if unitState == initsys.Inactive || unitState == initsys.Failed {
		c.printf("%s is not running", inst.Name)
		return nil
	}

	rec := c.begin(inst.Name, "stop", "")
	err = c.shutdown(ctx, inst)
	c.finish(rec, err)
	return err
}

func (c *Controller) shutdown(ctx context.Context, inst domain.Instance) error {
	c.printf("stopping %s...", inst.Name)

	console, err := c.dial(ctx, inst.RCON)
	if err != nil {
		c.printf("console unreachable (%v); stopping %s forcefully", err, inst.Name)
	} else {
		for _, command := range []string{"say " + shutdownNotice, "save-all", "stop"} {
			if _, err := console.Execute(command); err != nil {
				c.printf("console command failed (%v); stopping %s forcefully", err, inst.Name)
				break
			}
		}
		console.Close()
	}

	if err := c.Init.Stop(ctx, inst.Unit()); err != nil {
		return err
	}

	waitCtx := ctx
	if c.StopGrace > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.StopGrace)
		defer cancel()
	}
	if err := c.Init.WaitInactive(waitCtx, inst.Unit()); err != nil {
		return fmt.Errorf("%s did not stop in time: %w", inst.Name, err)
	}

	c.printf("%s stopped", inst.Name)
	return nil
}

// Restart stops the world and starts it again. A failed stop aborts
// the restart; the world is never started on top of a half-stopped
// unit.
func (c *Controller) Restart(ctx context.Context, inst domain.Instance) (domain.State, error) {
	defer c.lockInstance(inst.Name)()

	rec := c.begin(inst.Name, "restart", "")
	if err := c.stopLocked(ctx, inst); err != nil {
		c.finish(rec, err)
		return domain.StateUnknown, err
	}
	state, err := c.startLocked(ctx, inst)
	c.finish(rec, err)
	return state, err
}

// Backup archives a running world's directory into destDir. The world
// keeps running: autosave is disabled and pending chunks are flushed
// before the copy, and autosave is re-enabled afterwards no matter how
// the copy went. Returns the tarball path.
func (c *Controller) Backup(ctx context.Context, inst domain.Instance, destDir string) (string, error) {
	defer c.lockInstance(inst.Name)()

	rec := c.begin(inst.Name, "backup", "")
	path, err := c.backupLocked(ctx, inst, destDir)
	c.finish(rec, err)
	return path, err
}

func (c *Controller) backupLocked(ctx context.Context, inst domain.Instance, destDir string) (string, error) {
	console, err := c.dial(ctx, inst.RCON)
	if err != nil {
		return "", fmt.Errorf("backup requires a running world: %w", err)
	}
	defer console.Close()

	c.printf("backing up %s...", inst.Name)
	if _, err := console.Execute("say Backing up..."); err != nil {
		return "", err
	}
	if err := disableSaves(console); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, backup.DefaultName(inst.Name, time.Now()))
	backupErr := backup.Create(inst.Directory, dest)

	// Autosave comes back on even when the copy failed. A world left
	// with saves off loses data on the next crash.
	if _, err := console.Execute("save-on"); err != nil {
		if backupErr != nil {
			return "", fmt.Errorf("backup failed (%v) and autosave could not be re-enabled: %w", backupErr, err)
		}
		return "", fmt.Errorf("autosave could not be re-enabled: %w", err)
	}

	if backupErr != nil {
		return "", backupErr
	}

	console.Execute("say Backup complete.")
	c.printf("backup written to %s", dest)
	return dest, nil
}

// Saves toggles the world's autosave. Off also flushes pending chunks
// so the on-disk state is consistent immediately after the call.
func (c *Controller) Saves(ctx context.Context, inst domain.Instance, enabled bool) error {
	defer c.lockInstance(inst.Name)()

	console, err := c.dial(ctx, inst.RCON)
	if err != nil {
		return err
	}
	defer console.Close()

	if enabled {
		_, err = console.Execute("save-on")
		return err
	}
	return disableSaves(console)
}

// disableSaves turns autosave off and flushes. save-off alone leaves
// modified chunks only in memory.
func disableSaves(console Console) error {
	if _, err := console.Execute("save-off"); err != nil {
		return err
	}
	_, err := console.Execute("save-all")
	return err
}

// Command runs one raw console command on a running world and returns
// the server's reply.
func (c *Controller) Command(ctx context.Context, inst domain.Instance, command string) (string, error) {
	defer c.lockInstance(inst.Name)()

	console, err := c.dial(ctx, inst.RCON)
	if err != nil {
		return "", err
	}
	defer console.Close()

	return console.Execute(command)
}
