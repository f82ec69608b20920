// Package autosave coalesces bursts of snapshot changes into one durable
// write per quiet period.
//
// Every Schedule restarts the quiet-period timer, so only the last snapshot
// of a burst is written, and only once. Flush writes the pending snapshot
// immediately; callers use it where the process may be suspended or hidden
// afterwards (focus loss, minimize to tray, shutdown).
//
// Writes never overlap. A failed write is retried once; if the retry fails
// too the snapshot stays pending and the status reports Unsaved until a later
// Schedule or Flush succeeds.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/state"
)

// DefaultDelay is the quiet period before a scheduled write.
const DefaultDelay = 500 * time.Millisecond

// Status is the save state shown to the user.
type Status int

const (
	// StatusSaved means every scheduled snapshot has been written.
	StatusSaved Status = iota
	// StatusPending means a write is scheduled or in flight.
	StatusPending
	// StatusUnsaved means the last write failed and the snapshot is still pending.
	StatusUnsaved
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusPending:
		return "pending"
	case StatusUnsaved:
		return "unsaved"
	default:
		return "unknown"
	}
}

// SaveFunc commits one full snapshot.
type SaveFunc func(ctx context.Context, snap state.Snapshot) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock injects the clock driving the quiet-period timer.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDelay overrides the quiet period. Non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OnStatus registers fn to be called after every status change. fn runs
// outside the scheduler lock and may call Status.
func OnStatus(fn func(Status)) Option {
	return func(s *Scheduler) {
		s.onStatus = fn
	}
}

// Scheduler owns one cancellable deferred write.
type Scheduler struct {
	save     SaveFunc
	clock    clockwork.Clock
	delay    time.Duration
	logger   *logrus.Entry
	onStatus func(Status)

	mu      sync.Mutex
	pending *state.Snapshot
	gen     uint64
	timer   clockwork.Timer
	status  Status
	lastErr error

	// writeMu keeps the timer callback and Flush from writing concurrently.
	writeMu sync.Mutex
}

// New returns a scheduler that commits snapshots with save.
func New(save SaveFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		save:   save,
		clock:  clockwork.NewRealClock(),
		delay:  DefaultDelay,
		logger: logging.NewLogger("autosave"),
		status: StatusSaved,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay reports the quiet period.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Schedule records snap as the latest state and restarts the quiet period.
func (s *Scheduler) Schedule(snap state.Snapshot) {
	cp := snap.Clone()

	s.mu.Lock()
	s.pending = &cp
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
	changed := s.setStatusLocked(StatusPending)
	s.mu.Unlock()

	s.notify(changed, StatusPending)
}

// Flush cancels the timer and writes the pending snapshot now. It returns
// nil when nothing is pending.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.commit(ctx)
}

// Status reports the current save status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pending reports whether a snapshot is waiting to be written.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// LastError returns the error of the last failed write, cleared on success.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	_ = s.commit(context.Background())
}

func (s *Scheduler) commit(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil
	}
	snap := *s.pending
	gen := s.gen
	s.mu.Unlock()

	err := s.save(ctx, snap)
	if err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Warn("save failed, retrying once")
		err = s.save(ctx, snap)
	}

	s.mu.Lock()
	superseded := s.gen != gen
	var next Status
	switch {
	case err != nil:
		s.lastErr = err
		next = StatusUnsaved
		if superseded {
			next = StatusPending
		}
	case superseded:
		s.lastErr = nil
		next = StatusPending
	default:
		s.lastErr = nil
		s.pending = nil
		next = StatusSaved
	}
	changed := s.setStatusLocked(next)
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("notes", len(snap.Notes)).Error("snapshot not saved")
	} else {
		s.logger.WithField("notes", len(snap.Notes)).Debug("snapshot committed")
	}
	s.notify(changed, next)
	return err
}

func (s *Scheduler) setStatusLocked(next Status) bool {
	if s.status == next {
		return false
	}
	s.status = next
	return true
}

func (s *Scheduler) notify(changed bool, status Status) {
	if changed && s.onStatus != nil {
		s.onStatus(status)
	}
}
