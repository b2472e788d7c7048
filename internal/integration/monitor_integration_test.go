package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/service/common"
	"github.com/oshokin/attendance-notifier/internal/service/monitor"
)

// TestMonitor_PollsAndReturnsOnCancel runs the monitor over a SQLite roster and cancels it.
func TestMonitor_PollsAndReturnsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- monitor.Run(runCtx, &monitor.Options{
			Runtime: common.Options{
				ConfigPath: writeConfig(t, dir, config.RosterDriverSQLite),
				EnvPath:    filepath.Join(dir, "none.env"),
			},
			CheckInterval: pollInterval,
		})
	}()

	// Wait for a few ticks, then cancel.
	time.Sleep(3 * pollInterval)
	cancel()

	require.NoError(t, <-done)
}
