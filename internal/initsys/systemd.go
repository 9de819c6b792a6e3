package initsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"wurstmineberg/worldctl/internal/domain"
)

// Systemd drives systemctl for templated units. Commands run with sudo
// when the tool itself is not root, matching how operators invoke it.
type Systemd struct {
	// SystemctlPath is the systemctl binary; defaults to "systemctl".
	SystemctlPath string

	// UseSudo prefixes commands with SudoCommand.
	UseSudo bool

	// SudoCommand defaults to "sudo".
	SudoCommand string

	// PollInterval is the WaitInactive probe interval.
	PollInterval time.Duration
}

// NewSystemd returns a Systemd client with defaults filled in.
func NewSystemd() *Systemd {
	return &Systemd{
		SystemctlPath: "systemctl",
		UseSudo:       os.Geteuid() != 0,
		SudoCommand:   "sudo",
		PollInterval:  500 * time.Millisecond,
	}
}

func (s *Systemd) run(ctx context.Context, args ...string) (string, error) {
	var cmd *exec.Cmd
	if s.UseSudo {
		cmd = exec.CommandContext(ctx, s.SudoCommand, append([]string{s.SystemctlPath}, args...)...)
	} else {
		cmd = exec.CommandContext(ctx, s.SystemctlPath, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s %s: %v (stderr: %s)",
			s.SystemctlPath, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Start implements Client.
func (s *Systemd) Start(ctx context.Context, unit string) error {
	if _, err := s.run(ctx, "start", unit+".service"); err != nil {
		return fmt.Errorf("start %s: %v: %w", unit, err, domain.ErrInitSystem)
	}
	return nil
}

// Stop implements Client.
func (s *Systemd) Stop(ctx context.Context, unit string) error {
	if _, err := s.run(ctx, "stop", unit+".service"); err != nil {
		return fmt.Errorf("stop %s: %v: %w", unit, err, domain.ErrInitSystem)
	}
	return nil
}

// Status implements Client. systemctl is-active exits non-zero for any
// state other than active, so the exit code is ignored whenever stdout
// names a state we know.
func (s *Systemd) Status(ctx context.Context, unit string) (ActiveState, error) {
	out, err := s.run(ctx, "is-active", unit+".service")
	state := ActiveState(strings.TrimSpace(out))
	switch state {
	case Active, Inactive, Failed, Activating, Deactivating:
		return state, nil
	}
	if err == nil {
		err = fmt.Errorf("unrecognized state %q", state)
	}
	return Unknown, fmt.Errorf("status %s: %v: %w", unit, err, domain.ErrInitSystem)
}

// WaitInactive implements Client.
func (s *Systemd) WaitInactive(ctx context.Context, unit string) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, err := s.Status(ctx, unit)
		if err == nil && (state == Inactive || state == Failed) {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("timed out waiting for %s to stop: %w", unit, domain.ErrInitSystem)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
