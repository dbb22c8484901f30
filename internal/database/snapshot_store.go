package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// ErrNoSnapshot is returned when no snapshot exists for a resource
var ErrNoSnapshot = fmt.Errorf("no dataset snapshot: %w", fs.ErrNotExist)

// Snapshot is a raw dataset that once passed verification
type Snapshot struct {
	ContentHash    string
	ComputedDigest string
	Resource       string
	Raw            []byte
	CreatedAt      time.Time
	LastUsedAt     time.Time
}

// SnapshotStore keeps the last verified dataset bytes so a restart can
// come up when the primary source is unreachable
type SnapshotStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSnapshotStore creates a new snapshot store
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{
		db:     db.Conn(),
		logger: logging.GetLogger("snapshot-store"),
	}
}

// SaveSnapshot stores raw under its content hash. Saving identical bytes
// again only refreshes last_used_at.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, raw []byte, computedDigest, resource string) (string, error) {
	hash := ContentHash(raw)
	now := time.Now().UTC().Format(timestampLayout)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO dataset_snapshots (content_hash, computed_digest, resource, raw, size, created_at, last_used_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(content_hash) DO UPDATE SET
	resource = excluded.resource,
	last_used_at = excluded.last_used_at`,
		hash, computedDigest, resource, raw, len(raw), now, now)
	if err != nil {
		s.logger.Error().Err(err).Str("content_hash", hash).Msg("Failed to save dataset snapshot")
		return "", fmt.Errorf("failed to save dataset snapshot: %w", err)
	}

	s.logger.Debug().Str("content_hash", hash).Int("size", len(raw)).Msg("Dataset snapshot saved")
	return hash, nil
}

// LatestSnapshot returns the most recently used snapshot of resource
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, resource string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT content_hash, computed_digest, resource, raw, created_at, last_used_at
FROM dataset_snapshots
WHERE resource = ?
ORDER BY last_used_at DESC, created_at DESC
LIMIT 1`, resource)

	var (
		snap                Snapshot
		createdAt, lastUsed string
	)
	err := row.Scan(&snap.ContentHash, &snap.ComputedDigest, &snap.Resource, &snap.Raw, &createdAt, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset snapshot: %w", err)
	}

	if snap.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot time %q: %w", createdAt, err)
	}
	if snap.LastUsedAt, err = time.Parse(timestampLayout, lastUsed); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot time %q: %w", lastUsed, err)
	}
	return &snap, nil
}

// Prune deletes all but the keep most recently used snapshots
func (s *SnapshotStore) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM dataset_snapshots
WHERE content_hash NOT IN (
	SELECT content_hash FROM dataset_snapshots ORDER BY last_used_at DESC, created_at DESC LIMIT ?
)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune dataset snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Int("kept", keep).Msg("Pruned dataset snapshots")
	}
	return n, nil
}

// SnapshotProvider serves the latest stored snapshot as a dataset resource.
// The bytes still go through the loader's verification.
type SnapshotProvider struct {
	store *SnapshotStore
}

// NewSnapshotProvider creates a provider reading from store
func NewSnapshotProvider(store *SnapshotStore) *SnapshotProvider {
	return &SnapshotProvider{store: store}
}

// ReadResource returns the latest snapshot stored for name
func (p *SnapshotProvider) ReadResource(ctx context.Context, name string) ([]byte, error) {
	snap, err := p.store.LatestSnapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	return snap.Raw, nil
}
