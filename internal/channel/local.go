package channel

import (
	"context"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/state"
)

// Ensure Local implements Endpoint at compile time.
var _ Endpoint = (*Local)(nil)

// Local talks to a host in the same process.
type Local struct {
	host *host.Host
}

// NewLocal returns an endpoint over h.
func NewLocal(h *host.Host) *Local {
	return &Local{host: h}
}

func (l *Local) LoadState(ctx context.Context) (state.Snapshot, error) {
	return l.host.LoadState(ctx)
}

func (l *Local) SaveState(ctx context.Context, snap state.Snapshot) error {
	return l.host.SaveState(ctx, snap)
}

func (l *Local) SetAlwaysOnTop(ctx context.Context, on bool) (bool, error) {
	return l.host.SetAlwaysOnTop(ctx, on)
}

func (l *Local) MinimizeToTray(ctx context.Context) error {
	return l.host.MinimizeToTray(ctx)
}

func (l *Local) SetLaunchOnStartup(ctx context.Context, enabled bool) (bool, error) {
	return l.host.SetLaunchOnStartup(ctx, enabled)
}

func (l *Local) Subscribe(ctx context.Context) (<-chan host.Notification, error) {
	events, cancel := l.host.Subscribe()
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return events, nil
}

func (l *Local) Blur(context.Context) error {
	l.host.Blur()
	return nil
}

func (l *Local) Resize(ctx context.Context, b host.Bounds) error {
	return l.host.Resize(ctx, b)
}

func (l *Local) RequestClose(context.Context) (bool, error) {
	return l.host.RequestClose(), nil
}

func (l *Local) Activate(ctx context.Context) error {
	return l.host.Activate(ctx)
}

func (l *Local) Quit(context.Context) error {
	l.host.Quit()
	return nil
}
