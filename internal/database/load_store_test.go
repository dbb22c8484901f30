package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	// BLAKE3 of the empty input
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", ContentHash(nil))
	assert.Len(t, ContentHash([]byte(`{"days": {}}`)), 64)
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestLoadStore_RecordAndRead(t *testing.T) {
	db := newTestDB(t)
	store := NewLoadStore(db)
	ctx := context.Background()

	last, err := store.LastSuccessful(ctx)
	require.NoError(t, err)
	assert.Nil(t, last, "no loads recorded yet")

	loadedAt := time.Date(2025, 3, 1, 12, 0, 0, 500, time.UTC)
	ok := LoadRecord{
		Generation:     uuid.NewString(),
		Source:         SourcePrimary,
		Resource:       "calendar_data.json",
		ContentHash:    ContentHash([]byte("raw")),
		StoredDigest:   "1de98b3c79041fe556fc05faf82ab7d7",
		ComputedDigest: "1de98b3c79041fe556fc05faf82ab7d7",
		Status:         LoadSuccess,
		DayCount:       5,
		ScriptureCount: 3,
		Duration:       42 * time.Millisecond,
		LoadedAt:       loadedAt,
	}
	require.NoError(t, store.RecordLoad(ctx, ok))

	failed := LoadRecord{
		Generation:   uuid.NewString(),
		Source:       SourcePrimary,
		Resource:     "calendar_data.json",
		Status:       LoadFailure,
		ErrorKind:    "integrity",
		ErrorMessage: "digest mismatch",
	}
	require.NoError(t, store.RecordLoad(ctx, failed))

	recent, err := store.RecentLoads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, failed.Generation, recent[0].Generation, "newest first")
	assert.Equal(t, LoadFailure, recent[0].Status)
	assert.Equal(t, "integrity", recent[0].ErrorKind)
	assert.Empty(t, recent[0].ContentHash)
	assert.False(t, recent[0].LoadedAt.IsZero(), "load time defaults to now")

	last, err = store.LastSuccessful(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, ok.Generation, last.Generation)
	assert.Equal(t, SourcePrimary, last.Source)
	assert.Equal(t, ok.ContentHash, last.ContentHash)
	assert.Equal(t, ok.StoredDigest, last.StoredDigest)
	assert.Equal(t, 5, last.DayCount)
	assert.Equal(t, 3, last.ScriptureCount)
	assert.Equal(t, 42*time.Millisecond, last.Duration)
	assert.True(t, loadedAt.Equal(last.LoadedAt))

	limited, err := store.RecentLoads(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLoadStore_DuplicateGeneration(t *testing.T) {
	db := newTestDB(t)
	store := NewLoadStore(db)
	ctx := context.Background()

	rec := LoadRecord{Generation: "gen-1", Source: SourceSnapshot, Resource: "x", Status: LoadSuccess}
	require.NoError(t, store.RecordLoad(ctx, rec))
	assert.Error(t, store.RecordLoad(ctx, rec))
}
