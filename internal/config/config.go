package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/storage"
)

// Config is the resolved sticky configuration.
type Config struct {
	StoreBackend storage.Backend
	StorePath    string
	SaveDebounce time.Duration
	SocketPath   string
	LogLevel     string
	LogFormat    string
	LogFile      string
}

const (
	defaultConfigPath   = "~/.config/sticky/config.toml"
	defaultDataDir      = "~/.local/share/sticky"
	defaultStateDir     = "~/.local/state/sticky"
	defaultSaveDebounce = 500 * time.Millisecond
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	sqliteFileName      = "sticky.db"
	socketFileName      = "sticky.sock"
	logFileName         = "sticky.log"
)

type fileConfig struct {
	StoreBackend   string `toml:"store_backend"`
	StorePath      string `toml:"store_path"`
	SaveDebounceMS *int   `toml:"save_debounce_ms"`
	SocketPath     string `toml:"socket_path"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	LogFile        string `toml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StoreBackend: storage.BackendFile,
		StorePath:    defaultStorePath(storage.BackendFile),
		SaveDebounce: defaultSaveDebounce,
		SocketPath:   mustExpand(defaultStateDir + "/" + socketFileName),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		LogFile:      mustExpand(defaultStateDir + "/" + logFileName),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	backend, err := storage.ParseBackend(raw.StoreBackend)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.StoreBackend = backend

	cfg.StorePath = strings.TrimSpace(raw.StorePath)
	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath(backend)
	} else if cfg.StorePath, err = expandPath(cfg.StorePath); err != nil {
		return Config{}, fmt.Errorf("store_path: %w", err)
	}

	if ms := raw.SaveDebounceMS; ms != nil {
		if *ms < 0 {
			return Config{}, fmt.Errorf("parse config: save_debounce_ms must not be negative")
		}
		if *ms > 0 {
			cfg.SaveDebounce = time.Duration(*ms) * time.Millisecond
		}
	}

	if socket := strings.TrimSpace(raw.SocketPath); socket != "" {
		cfg.SocketPath = mustExpand(socket)
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(raw.LogFormat); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	return cfg, nil
}

// Logging returns the logger settings. The TUI owns the terminal, so stderr
// output is left to the logging package's tty check.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
		Stderr: "auto",
	}
}

// ResolvePath expands path, or the default config location when empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// StoreFileName is the default file name of the store for backend.
func StoreFileName(backend storage.Backend) string {
	if backend == storage.BackendSQLite {
		return sqliteFileName
	}
	return storage.DefaultDocumentName
}

func defaultStorePath(backend storage.Backend) string {
	return mustExpand(defaultDataDir + "/" + StoreFileName(backend))
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
