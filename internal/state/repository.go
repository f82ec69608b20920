package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/storage"
)

// Repository loads and saves the snapshot through a storage adapter.
// Save may be called concurrently; the last write wins.
type Repository struct {
	store  storage.Adapter
	logger *logrus.Entry
	clock  clockwork.Clock
	newID  func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger overrides the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used for default timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithIDGenerator sets how note ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRepository returns a repository over store.
func NewRepository(store storage.Adapter, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: logging.NewLogger("state"),
		clock:  clockwork.NewRealClock(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location describes where the snapshot lives.
func (r *Repository) Location() string {
	return r.store.Location()
}

// Load returns the stored snapshot, repaired. When nothing usable is stored
// it writes and returns the default snapshot. The only error is a failure to
// persist that default; the returned snapshot is usable even then.
func (r *Repository) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	data, err := r.store.Read(ctx)
	switch {
	case err == nil:
		snap, decodeErr := Decode(data)
		if decodeErr == nil {
			return Repair(snap, r.newID), nil
		}
		r.logger.WithError(decodeErr).WithField("location", r.store.Location()).
			Warn("stored snapshot unreadable, starting from defaults")
		r.quarantine(ctx)
	case errors.Is(err, storage.ErrNotFound):
		r.logger.WithField("location", r.store.Location()).Info("no stored snapshot, creating defaults")
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Snapshot{}, ctxErr
		}
		r.logger.WithError(err).WithField("location", r.store.Location()).
			Warn("read snapshot failed, starting from defaults")
	}

	snap := Default(r.clock.Now(), r.newID())
	if err := r.Save(ctx, snap); err != nil {
		return snap, fmt.Errorf("persist default snapshot: %w", err)
	}
	return snap, nil
}

// Save writes the full snapshot, replacing what was stored.
func (r *Repository) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := r.store.Write(ctx, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	r.logger.WithFields(logrus.Fields{
		"notes": len(snap.Notes),
		"bytes": len(data),
	}).Debug("snapshot saved")
	return nil
}

func (r *Repository) quarantine(ctx context.Context) {
	q, ok := r.store.(storage.Quarantiner)
	if !ok {
		return
	}
	moved, err := q.Quarantine(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("quarantine unreadable snapshot failed")
		return
	}
	if moved != "" {
		r.logger.WithField("moved_to", moved).Info("unreadable snapshot kept aside")
	}
}
