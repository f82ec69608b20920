// Package app is the composition root of sticky.
//
// # Modes
//
// Run starts everything in one process: the store, the host with its virtual
// window, and the TUI talking to the host through channel.Local.
//
// Serve starts only the host and exposes it on a Unix socket through
// channel.Server. Attach starts a TUI against such a host through
// channel.Client, waiting for the socket with exponential backoff (see
// WaitForHost). Closing an attached TUI leaves the host running; quitting it
// stops the daemon too.
//
// Export and Schema are offline helpers over the same store and snapshot
// format.
//
// # Startup
//
//  1. config.Load, then command-line overrides, then logging.Configure
//  2. storage.Open for the configured backend
//  3. state.NewRepository and host.New with the autostart entry
//  4. session.New over the channel endpoint, then Load
//  5. session.Listen and config.Watch in the background
//  6. ui.Run, which blocks until the user quits or ctx is cancelled
//
// # Shutdown
//
// Whatever ends the TUI, pending edits are flushed with a bounded timeout
// before the host and the store are closed. Errors from that final flush are
// joined with the TUI's own error.
//
// # Errors
//
// Config, store and window failures at startup are returned. A missing
// autostart directory or an unavailable notification stream are logged and
// the app keeps running without them.
package app
