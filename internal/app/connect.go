package app

import (
	"context"
	"time"

	"github.com/five82/sticky/internal/logging"
)

const (
	retryInterval = 100 * time.Millisecond
	maxBackoff    = 2 * time.Second
)

// Pinger is the part of the channel client WaitForHost needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForHost pings until the host answers, backing off between attempts.
// It gives up after wait and returns the last ping error; a non-positive
// wait tries once.
func WaitForHost(ctx context.Context, p Pinger, wait time.Duration) error {
	logger := logging.NewLogger("app")

	deadline := time.Now().Add(wait)
	for failures := 0; ; failures++ {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := calculateBackoff(failures, retryInterval)
		if time.Now().Add(delay).After(deadline) {
			return err
		}
		logger.WithError(err).WithField("retry_in", delay).Debug("host not ready")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// calculateBackoff doubles base for each failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
