package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/common"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// testRuntime writes a test-mode configuration into a temporary directory.
func testRuntime(t *testing.T) common.Options {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Roster.Path = filepath.Join(dir, "roster.yaml")

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	return common.Options{ConfigPath: path, EnvPath: filepath.Join(dir, "none.env")}
}

// TestRun_SendsToSampleRow checks a manual send against the generated sample roster.
func TestRun_SendsToSampleRow(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		Runtime: testRuntime(t),
		Row:     1,
		Kind:    string(render.ManualPaymentRequest),
	})
	require.NoError(t, err)
}

// TestRun_Rejects checks unknown kinds and rows.
func TestRun_Rejects(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{Runtime: testRuntime(t), Row: 1, Kind: "fax"})
	require.ErrorIs(t, err, render.ErrInvalidRequest)

	err = Run(context.Background(), &Options{Runtime: testRuntime(t), Row: 42, Kind: "checkin"})
	require.ErrorIs(t, err, roster.ErrNotFound)
}

// TestFormatOutcome checks the log line layout.
func TestFormatOutcome(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.Equal(t,
		"checkin delivered to A via test (2024-03-01T09:00:00Z): simulated sms delivery",
		formatOutcome(dispatch.Outcome{
			Kind:     "checkin",
			Status:   dispatch.StatusDelivered,
			Name:     "A",
			Provider: config.ProviderTest,
			Detail:   "simulated sms delivery",
			At:       at,
		}),
	)

	require.Contains(t, formatOutcome(dispatch.Outcome{}), "<unknown>")
}
