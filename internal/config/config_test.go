package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sticky/internal/storage"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, storage.BackendFile, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(home, ".local/share/sticky", storage.DefaultDocumentName), cfg.StorePath)
	assert.Equal(t, 500*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, filepath.Join(home, ".local/state/sticky/sticky.sock"), cfg.SocketPath)
	assert.Equal(t, filepath.Join(home, ".local/state/sticky/sticky.log"), cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_backend = " SQLite "
store_path = "  ~/notes/sticky.db  "
save_debounce_ms = 250
socket_path = "/tmp/sticky-test.sock"
log_level = " DEBUG "
log_format = "json"
log_file = "~/logs/sticky.log"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, storage.BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(home, "notes/sticky.db"), cfg.StorePath)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, "/tmp/sticky-test.sock", cfg.SocketPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, strings.HasPrefix(cfg.LogFile, home))

	lc := cfg.Logging()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, cfg.LogFile, lc.File)
}

func TestLoad_SQLiteDefaultsToDatabaseFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`store_backend = "sqlite"`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/sticky/sticky.db"), cfg.StorePath)
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_path = "   "
log_level = ""
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ZeroDebounceUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`save_debounce_ms = 0`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultSaveDebounce, cfg.SaveDebounce)
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	cases := map[string]string{
		"toml":     `store_backend = [`,
		"backend":  `store_backend = "redis"`,
		"debounce": `save_debounce_ms = -1`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse config")
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b"), got)
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	_, err := expandPath("   ")
	assert.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "info"`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func(cfg Config) { reloaded <- cfg })
	}()

	// The watcher registers asynchronously; rewrite until a reload arrives.
	var got Config
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`log_level = "debug"`), 0o600)
		select {
		case got = <-reloaded:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "debug", got.LogLevel)

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_IgnoresOtherFilesAndBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "info"`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 4)
	go func() { _ = Watch(ctx, path, 10*time.Millisecond, func(cfg Config) { reloaded <- cfg }) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte(`x = 1`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`log_level = [`), 0o600))

	assert.Never(t, func() bool { return len(reloaded) > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}
