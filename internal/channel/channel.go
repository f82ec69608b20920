// Package channel is the boundary between the UI and the host.
//
// Channel holds the request/response operations and the host-to-UI
// notification stream. Window carries the events of the window the UI draws
// into back to the host. Local serves both in-process; Server and Client carry
// them over HTTP on a Unix socket, with notifications on a WebSocket.
package channel

import (
	"context"
	"errors"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/state"
)

// ErrHostUnavailable is returned when the host cannot be reached.
var ErrHostUnavailable = errors.New("host unavailable")

// Channel is the UI's view of the host.
type Channel interface {
	// LoadState returns the stored snapshot, creating the default on first use.
	LoadState(ctx context.Context) (state.Snapshot, error)
	// SaveState overwrites the stored snapshot.
	SaveState(ctx context.Context, snap state.Snapshot) error
	// SetAlwaysOnTop returns the value the window actually ended up with.
	SetAlwaysOnTop(ctx context.Context, on bool) (bool, error)
	MinimizeToTray(ctx context.Context) error
	// SetLaunchOnStartup returns the stored value.
	SetLaunchOnStartup(ctx context.Context, enabled bool) (bool, error)
	// Subscribe streams notifications until ctx is done.
	Subscribe(ctx context.Context) (<-chan host.Notification, error)
}

// Window forwards events of the window the UI renders into.
type Window interface {
	Blur(ctx context.Context) error
	Resize(ctx context.Context, b host.Bounds) error
	// RequestClose reports whether the window really closes.
	RequestClose(ctx context.Context) (bool, error)
	Activate(ctx context.Context) error
	Quit(ctx context.Context) error
}

// Endpoint is both halves, as served by Local and Client.
type Endpoint interface {
	Channel
	Window
}

type flagPayload struct {
	Value bool `json:"value"`
}

type closePayload struct {
	Closed bool `json:"closed"`
}

type errorPayload struct {
	Error string `json:"error"`
}
