package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, path, addr string) {
	t.Helper()

	content := "server:\n  addr: \"" + addr + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher_StartLoadsInitialConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "authd.yaml")
	writeTestConfig(t, path, ":9090")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	cfg := w.GetLastConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestWatcher_StartRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "authd.yaml")
	content := "rateLimit:\n  api:\n    scope: api\n    window: 60s\n    max_requests: -5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ForceReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "authd.yaml")
	writeTestConfig(t, path, ":9090")

	var received *Config
	w, err := NewWatcher(path, func(c *Config) {
		received = c
	})
	require.NoError(t, err)

	writeTestConfig(t, path, ":7070")
	require.NoError(t, w.ForceReload())

	require.NotNil(t, received)
	assert.Equal(t, ":7070", received.Server.Addr)
	assert.Equal(t, ":7070", w.GetLastConfig().Server.Addr)
}

func TestWatcher_ReloadOnFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "authd.yaml")
	writeTestConfig(t, path, ":9090")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}, WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	writeTestConfig(t, path, ":7070")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":7070", cfg.Server.Addr)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
