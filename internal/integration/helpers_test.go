package integration

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/service/common"
	"github.com/oshokin/attendance-notifier/internal/service/server"
)

// pollInterval keeps integration ticks short.
const pollInterval = 50 * time.Millisecond

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeConfig saves a test-mode configuration with its roster in dir.
func writeConfig(t *testing.T, dir string, driver string) string {
	t.Helper()

	cfg := config.Default()
	cfg.AcademyName = "테스트학원"
	cfg.Roster.Driver = driver
	cfg.Roster.Path = filepath.Join(dir, "roster."+driver)

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	return path
}

// startServer runs attendance-server in the background and waits until it answers.
func startServer(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	addr := reservePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			Runtime: common.Options{
				ConfigPath: writeConfig(t, dir, config.RosterDriverFile),
				EnvPath:    filepath.Join(dir, "none.env"),
			},
			ListenAddress: addr,
			CheckInterval: pollInterval,
		})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	base := "http://" + addr

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz") //nolint:noctx // Test helper.
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return base
}

// call performs a request and decodes the JSON answer into out when it is not nil.
func call(t *testing.T, method, url string, body io.Reader, out any) int {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}
