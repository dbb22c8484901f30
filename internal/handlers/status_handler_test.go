package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/database"
)

func TestHandleStatus_NotReady(t *testing.T) {
	mux := http.NewServeMux()
	NewStatusHandler(NewBaseHandler(calendar.NewHolder(nil)), nil, nil).RegisterRoutes(mux)

	w := serve(t, mux, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Nil(t, body.Dataset)
	assert.Nil(t, body.NextReload)

	w = serve(t, mux, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleStatus_Ready(t *testing.T) {
	db := newTestDB(t)
	loads := database.NewLoadStore(db)
	ctx := context.Background()
	require.NoError(t, loads.RecordLoad(ctx, database.LoadRecord{
		Generation:     "gen-1",
		Source:         database.SourcePrimary,
		Resource:       "calendar_data.json",
		ComputedDigest: testDigest,
		Status:         database.LoadSuccess,
		DayCount:       3,
		LoadedAt:       time.Now(),
	}))

	next := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	NewStatusHandler(NewBaseHandler(calendar.NewHolder(newTestRepo(t))), loads, func() time.Time { return next }).RegisterRoutes(mux)

	w := serve(t, mux, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	require.NotNil(t, body.Dataset)
	assert.Equal(t, calendar.NewDate(2025, 3, 30), body.Dataset.First)
	assert.Equal(t, calendar.NewDate(2025, 4, 13), body.Dataset.Last)
	assert.Equal(t, 3, body.Dataset.Days)
	assert.Equal(t, 1, body.Dataset.Scriptures)
	assert.True(t, body.Dataset.Integrity.Verified)
	assert.Equal(t, "2025-01-01T00:00:00", body.Dataset.GeneratedAt)
	require.NotNil(t, body.NextReload)
	assert.True(t, next.Equal(*body.NextReload))
	require.Len(t, body.RecentLoads, 1)
	assert.Equal(t, "gen-1", body.RecentLoads[0].Generation)

	w = serve(t, mux, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleStatus_ZeroNextReloadOmitted(t *testing.T) {
	mux := http.NewServeMux()
	NewStatusHandler(NewBaseHandler(calendar.NewHolder(newTestRepo(t))), nil, func() time.Time { return time.Time{} }).RegisterRoutes(mux)

	w := serve(t, mux, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "nextReload")
}
