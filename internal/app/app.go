package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/autosave"
	"github.com/five82/sticky/internal/autostart"
	"github.com/five82/sticky/internal/channel"
	"github.com/five82/sticky/internal/config"
	"github.com/five82/sticky/internal/export"
	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/logtail"
	"github.com/five82/sticky/internal/session"
	"github.com/five82/sticky/internal/state"
	"github.com/five82/sticky/internal/storage"
	"github.com/five82/sticky/internal/ui"
)

// shutdownTimeout bounds the final flush and server shutdown.
const shutdownTimeout = 5 * time.Second

// Options configure the sticky application.
type Options struct {
	ConfigPath string
	// Store overrides store_backend from the config file.
	Store string
	// Socket overrides socket_path from the config file.
	Socket  string
	Verbose bool
}

// Setup loads the config, applies command-line overrides and configures
// logging.
func Setup(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(opts.Store) != "" {
		backend, err := storage.ParseBackend(opts.Store)
		if err != nil {
			return config.Config{}, err
		}
		// A store of the other kind keeps the directory but never the file.
		if backend != cfg.StoreBackend && backend != storage.BackendMemory {
			cfg.StorePath = filepath.Join(filepath.Dir(cfg.StorePath), config.StoreFileName(backend))
		}
		cfg.StoreBackend = backend
	}
	if strings.TrimSpace(opts.Socket) != "" {
		cfg.SocketPath = opts.Socket
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := logging.Configure(cfg.Logging()); err != nil {
		return config.Config{}, fmt.Errorf("configure logging: %w", err)
	}
	return cfg, nil
}

// Run boots the TUI with an embedded host until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := Setup(opts)
	if err != nil {
		return err
	}
	logger := logging.NewLogger("app")

	h, closeStore, err := openHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	defer h.Close()
	if err := h.Open(ctx); err != nil {
		return fmt.Errorf("open window: %w", err)
	}

	return runUI(ctx, opts, cfg, channel.NewLocal(h), logger)
}

// Serve runs the host as a daemon on the configured Unix socket until ctx is
// cancelled or a client asks it to quit.
func Serve(ctx context.Context, opts Options) error {
	cfg, err := Setup(opts)
	if err != nil {
		return err
	}
	logger := logging.NewLogger("app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h, closeStore, err := openHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	defer h.Close()
	if err := h.Open(ctx); err != nil {
		return fmt.Errorf("open window: %w", err)
	}

	go watchConfig(ctx, opts.ConfigPath, logger)

	srv := channel.NewServer(h, cancel)
	served := make(chan error, 1)
	go func() { served <- srv.ListenAndServe(cfg.SocketPath) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("host server shutdown")
	}
	return <-served
}

// Attach runs the TUI against a host daemon that is already serving.
func Attach(ctx context.Context, opts Options, wait time.Duration) error {
	cfg, err := Setup(opts)
	if err != nil {
		return err
	}
	logger := logging.NewLogger("app")

	client := channel.NewClient(cfg.SocketPath)
	if err := WaitForHost(ctx, client, wait); err != nil {
		return fmt.Errorf("connect to host at %s: %w", cfg.SocketPath, err)
	}
	if err := client.Activate(ctx); err != nil {
		return fmt.Errorf("show window: %w", err)
	}
	return runUI(ctx, opts, cfg, client, logger)
}

// Export writes the stored notes to w (yaml) or into dir (markdown).
func Export(ctx context.Context, opts Options, format export.Format, dir string, w io.Writer) error {
	cfg, err := Setup(opts)
	if err != nil {
		return err
	}
	adapter, closeStore, err := storage.Open(ctx, cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	snap, err := state.NewRepository(adapter).Load(ctx)
	if err != nil {
		logging.NewLogger("app").WithError(err).Warn("default snapshot not persisted")
	}

	switch format {
	case export.FormatMarkdown:
		paths, err := export.Markdown(dir, snap)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		return nil
	default:
		return export.YAML(w, snap, time.Now())
	}
}

// Logs writes the last lines of the configured log file to w.
func Logs(opts Options, lines int, filter logtail.Filter, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	tail, err := logtail.Read(cfg.LogFile, lines, filter)
	if err != nil {
		return err
	}
	for _, line := range tail {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Schema writes the JSON Schema of the persisted snapshot.
func Schema(w io.Writer) error {
	data, err := state.GenerateSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func openHost(ctx context.Context, cfg config.Config, logger *logrus.Entry) (*host.Host, func(), error) {
	adapter, closeAdapter, err := storage.Open(ctx, cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {
		if err := closeAdapter(); err != nil {
			logger.WithError(err).Warn("close store")
		}
	}

	var login host.LoginItems
	if entry, err := autostart.New(""); err != nil {
		logger.WithError(err).Warn("launch at login unavailable")
	} else {
		login = entry
	}

	repo := state.NewRepository(adapter)
	logger.WithFields(logrus.Fields{
		"backend":  cfg.StoreBackend,
		"location": repo.Location(),
	}).Info("store opened")
	return host.New(repo, host.VirtualFactory(nil), login), closeStore, nil
}

func runUI(ctx context.Context, opts Options, cfg config.Config, ep channel.Endpoint, logger *logrus.Entry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := &ui.Notifier{}
	s := session.New(ep,
		session.WithSaveOptions(autosave.WithDelay(cfg.SaveDebounce)),
		session.OnChange(notifier.Notify),
	)
	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	go func() {
		if err := s.Listen(ctx); err != nil {
			logger.WithError(err).Warn("host notifications unavailable")
		}
	}()
	go watchConfig(ctx, opts.ConfigPath, logger)

	runErr := ui.Run(ui.Options{Context: ctx, Session: s}, notifier)

	// Whatever ended the program, do not lose the last edit.
	flushCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.Flush(flushCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save notes: %w", err))
	}
	return runErr
}

func watchConfig(ctx context.Context, path string, logger *logrus.Entry) {
	if err := config.Watch(ctx, path, 0, config.ApplyLogging(logger)); err != nil {
		logger.WithError(err).Debug("config watch disabled")
	}
}
