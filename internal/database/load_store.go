package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// LoadStatus is the outcome of one dataset load attempt
type LoadStatus string

const (
	LoadSuccess LoadStatus = "success"
	LoadFailure LoadStatus = "failure"
)

// LoadSource names where a load read its bytes from
type LoadSource string

const (
	SourcePrimary  LoadSource = "primary"
	SourceSnapshot LoadSource = "snapshot"
)

// LoadRecord is one row of the dataset load history
type LoadRecord struct {
	ID             int64         `json:"id"`
	Generation     string        `json:"generation"`
	Source         LoadSource    `json:"source"`
	Resource       string        `json:"resource"`
	ContentHash    string        `json:"contentHash,omitempty"`
	StoredDigest   string        `json:"storedDigest,omitempty"`
	ComputedDigest string        `json:"computedDigest,omitempty"`
	Status         LoadStatus    `json:"status"`
	ErrorKind      string        `json:"errorKind,omitempty"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	DayCount       int           `json:"dayCount"`
	ScriptureCount int           `json:"scriptureCount"`
	Duration       time.Duration `json:"durationNs"`
	LoadedAt       time.Time     `json:"loadedAt"`
}

// ContentHash returns the BLAKE3-256 hex hash of raw dataset bytes
func ContentHash(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// LoadStore records dataset load attempts
type LoadStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewLoadStore creates a new load store
func NewLoadStore(db *DB) *LoadStore {
	return &LoadStore{
		db:     db.Conn(),
		logger: logging.GetLogger("load-store"),
	}
}

// RecordLoad inserts a load attempt
func (s *LoadStore) RecordLoad(ctx context.Context, rec LoadRecord) error {
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO dataset_loads (
	generation, source, resource, content_hash, stored_digest, computed_digest,
	status, error_kind, error_message, day_count, scripture_count, duration_ms, loaded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Generation, string(rec.Source), rec.Resource,
		nullString(rec.ContentHash), nullString(rec.StoredDigest), nullString(rec.ComputedDigest),
		string(rec.Status), nullString(rec.ErrorKind), nullString(rec.ErrorMessage),
		rec.DayCount, rec.ScriptureCount, rec.Duration.Milliseconds(),
		rec.LoadedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("generation", rec.Generation).Msg("Failed to record dataset load")
		return fmt.Errorf("failed to record dataset load: %w", err)
	}
	return nil
}

const loadColumns = `id, generation, source, resource, content_hash, stored_digest, computed_digest,
	status, error_kind, error_message, day_count, scripture_count, duration_ms, loaded_at`

// RecentLoads returns the newest n load attempts, newest first
func (s *LoadStore) RecentLoads(ctx context.Context, n int) ([]LoadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+loadColumns+` FROM dataset_loads ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset loads: %w", err)
	}
	defer rows.Close()

	var out []LoadRecord
	for rows.Next() {
		rec, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dataset loads: %w", err)
	}
	return out, nil
}

// LastSuccessful returns the newest successful load, or nil if none exists
func (s *LoadStore) LastSuccessful(ctx context.Context) (*LoadRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+loadColumns+` FROM dataset_loads WHERE status = ? ORDER BY id DESC LIMIT 1`, string(LoadSuccess))
	rec, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(row scanner) (LoadRecord, error) {
	var (
		rec                                     LoadRecord
		source, status, loadedAt                string
		hash, stored, computed, errKind, errMsg sql.NullString
		durationMs                              int64
	)
	err := row.Scan(&rec.ID, &rec.Generation, &source, &rec.Resource, &hash, &stored, &computed,
		&status, &errKind, &errMsg, &rec.DayCount, &rec.ScriptureCount, &durationMs, &loadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan dataset load: %w", err)
	}

	rec.Source = LoadSource(source)
	rec.Status = LoadStatus(status)
	rec.ContentHash = hash.String
	rec.StoredDigest = stored.String
	rec.ComputedDigest = computed.String
	rec.ErrorKind = errKind.String
	rec.ErrorMessage = errMsg.String
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if rec.LoadedAt, err = time.Parse(timestampLayout, loadedAt); err != nil {
		return rec, fmt.Errorf("failed to parse load time %q: %w", loadedAt, err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
