//go:build !windows

package initsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wurstmineberg/worldctl/internal/domain"
)

// stubSystemctl writes a shell script that prints output and exits
// with the given code, standing in for the real systemctl binary.
func stubSystemctl(t *testing.T, output string, exitCode int) *Systemd {
	t.Helper()
	path := filepath.Join(t.TempDir(), "systemctl")
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' %q\nexit %d\n", output, exitCode)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return &Systemd{SystemctlPath: path, PollInterval: 10 * time.Millisecond}
}

func TestSystemdStatus_States(t *testing.T) {
	cases := []struct {
		output   string
		exitCode int
		want     ActiveState
	}{
		// is-active exits 0 only for active; every other state still
		// names itself on stdout.
		{"active", 0, Active},
		{"inactive", 3, Inactive},
		{"failed", 3, Failed},
		{"activating", 3, Activating},
		{"deactivating", 3, Deactivating},
	}

	for _, tc := range cases {
		t.Run(tc.output, func(t *testing.T) {
			sd := stubSystemctl(t, tc.output, tc.exitCode)
			state, err := sd.Status(context.Background(), "minecraft@alpha")
			require.NoError(t, err)
			assert.Equal(t, tc.want, state)
		})
	}
}

func TestSystemdStatus_Unrecognized(t *testing.T) {
	sd := stubSystemctl(t, "flabbergasted", 1)
	state, err := sd.Status(context.Background(), "minecraft@alpha")
	assert.Equal(t, Unknown, state)
	assert.ErrorIs(t, err, domain.ErrInitSystem)
}

func TestSystemdStart_Failure(t *testing.T) {
	sd := stubSystemctl(t, "Failed to start minecraft@alpha.service", 1)
	err := sd.Start(context.Background(), "minecraft@alpha")
	assert.ErrorIs(t, err, domain.ErrInitSystem)
}

func TestSystemdWaitInactive(t *testing.T) {
	sd := stubSystemctl(t, "inactive", 3)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sd.WaitInactive(ctx, "minecraft@alpha"))
}

func TestSystemdWaitInactive_Timeout(t *testing.T) {
	sd := stubSystemctl(t, "deactivating", 3)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := sd.WaitInactive(ctx, "minecraft@alpha")
	assert.ErrorIs(t, err, domain.ErrInitSystem)
}
