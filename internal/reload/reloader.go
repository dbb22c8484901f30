// Package reload publishes freshly verified datasets into the shared Holder.
package reload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/dataset"
	"github.com/belphemur/hebrew-calendar/internal/logging"
	"github.com/belphemur/hebrew-calendar/internal/signals"
)

// Error kinds recorded in the load history
const (
	KindUnavailable = "unavailable"
	KindMalformed   = "malformed"
	KindIntegrity   = "integrity"
	KindUnknown     = "unknown"
)

// ErrorKind classifies a load error
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, dataset.ErrDatasetUnavailable):
		return KindUnavailable
	case errors.Is(err, dataset.ErrIntegrityCheckFailed):
		return KindIntegrity
	case errors.Is(err, dataset.ErrDatasetMalformed):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// Outcome describes one reload
type Outcome struct {
	Generation string
	Source     database.LoadSource
	Resource   string
	Digest     string
	Unchanged  bool
	Repository *calendar.Repository
}

// Reloader loads the dataset and swaps it into the Holder. Reloads are
// serialized; readers of the Holder never block.
type Reloader struct {
	mu       sync.Mutex
	holder   *calendar.Holder
	primary  *dataset.Loader
	fallback *dataset.Loader
	resource string

	loads     *database.LoadStore
	snapshots *database.SnapshotStore

	lastHash string
	logger   zerolog.Logger
}

// Option customizes a Reloader
type Option func(*Reloader)

// WithFallback sets the loader used when the primary source is unavailable
// and nothing has been published yet
func WithFallback(loader *dataset.Loader) Option {
	return func(r *Reloader) { r.fallback = loader }
}

// WithLoadStore records every attempt in the load history
func WithLoadStore(store *database.LoadStore) Option {
	return func(r *Reloader) { r.loads = store }
}

// WithSnapshotStore keeps a copy of every published dataset
func WithSnapshotStore(store *database.SnapshotStore) Option {
	return func(r *Reloader) { r.snapshots = store }
}

// New creates a Reloader publishing resource into holder
func New(holder *calendar.Holder, primary *dataset.Loader, resource string, opts ...Option) *Reloader {
	r := &Reloader{
		holder:   holder,
		primary:  primary,
		resource: resource,
		logger:   logging.GetLogger("reloader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reload loads the dataset and publishes it. On failure the current
// repository stays published and the error is returned.
func (r *Reloader) Reload(ctx context.Context) (*Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	generation := uuid.NewString()
	logger := r.logger.With().Str("generation", generation).Str("resource", r.resource).Logger()

	source := database.SourcePrimary
	res, err := r.primary.Fetch(ctx, r.resource)
	if err != nil && r.fallback != nil && errors.Is(err, dataset.ErrDatasetUnavailable) && !r.holder.Ready() {
		logger.Warn().Err(err).Msg("Primary dataset unavailable, trying stored snapshot")
		r.record(ctx, r.failureRecord(generation, source, err))

		generation = uuid.NewString()
		logger = logger.With().Str("generation", generation).Logger()
		source = database.SourceSnapshot
		res, err = r.fallback.Fetch(ctx, r.resource)
	}
	if err != nil {
		logger.Error().Err(err).Str("kind", ErrorKind(err)).Msg("Dataset reload rejected, keeping current repository")
		r.record(ctx, r.failureRecord(generation, source, err))
		signals.EmitDatasetReloadFailed(ctx, generation, r.resource, err)
		return nil, fmt.Errorf("reload %s: %w", generation, err)
	}

	hash := database.ContentHash(res.Raw)
	integrity := res.Data.Integrity()
	out := &Outcome{
		Generation: generation,
		Source:     source,
		Resource:   res.Resource,
		Digest:     integrity.Computed,
	}

	if hash == r.lastHash && r.holder.Ready() {
		logger.Debug().Str("content_hash", hash).Msg("Dataset unchanged, keeping current repository")
		out.Unchanged = true
		out.Repository = r.holder.Current()
		return out, nil
	}

	repo := calendar.NewRepository(res.Data)
	previous := r.holder.Swap(repo)
	r.lastHash = hash
	out.Repository = repo

	r.record(ctx, database.LoadRecord{
		Generation:     generation,
		Source:         source,
		Resource:       res.Resource,
		ContentHash:    hash,
		StoredDigest:   integrity.Stored,
		ComputedDigest: integrity.Computed,
		Status:         database.LoadSuccess,
		DayCount:       res.Data.DayCount(),
		ScriptureCount: res.Data.ScriptureCount(),
		Duration:       res.Duration,
	})
	if r.snapshots != nil && source == database.SourcePrimary {
		if _, err := r.snapshots.SaveSnapshot(ctx, res.Raw, integrity.Computed, res.Resource); err != nil {
			logger.Warn().Err(err).Msg("Failed to store dataset snapshot")
		}
	}

	logger.Info().
		Str("source", string(source)).
		Str("digest", integrity.Computed).
		Int("days", res.Data.DayCount()).
		Bool("replaced", previous != nil).
		Msg("Published dataset")

	signals.EmitDatasetReloaded(ctx, signals.DatasetReloadedData{
		Generation:     generation,
		Source:         string(source),
		Resource:       res.Resource,
		ComputedDigest: integrity.Computed,
		Days:           res.Data.DayCount(),
		Scriptures:     res.Data.ScriptureCount(),
	})
	return out, nil
}

func (r *Reloader) failureRecord(generation string, source database.LoadSource, err error) database.LoadRecord {
	rec := database.LoadRecord{
		Generation:   generation,
		Source:       source,
		Resource:     r.resource,
		Status:       database.LoadFailure,
		ErrorKind:    ErrorKind(err),
		ErrorMessage: err.Error(),
		LoadedAt:     time.Now(),
	}
	var ierr *dataset.IntegrityError
	if errors.As(err, &ierr) {
		rec.StoredDigest = ierr.Expected
		rec.ComputedDigest = ierr.Computed
	}
	return rec
}

// record writes to the load history. History is best effort: a failed
// write never blocks publishing.
func (r *Reloader) record(ctx context.Context, rec database.LoadRecord) {
	if r.loads == nil {
		return
	}
	if err := r.loads.RecordLoad(ctx, rec); err != nil {
		r.logger.Warn().Err(err).Str("generation", rec.Generation).Msg("Failed to record dataset load")
	}
}

// Follow reloads once per value received on changes, until ctx is done or
// changes is closed
func (r *Reloader) Follow(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case file, ok := <-changes:
			if !ok {
				return
			}
			r.logger.Info().Str("file", file).Msg("Dataset changed on disk, reloading")
			if _, err := r.Reload(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("Reload after file change failed")
			}
		}
	}
}
