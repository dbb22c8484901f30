package publish

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/token"
)

func newTestManager(t *testing.T, fake *fakeCalendar, withToken bool) *Manager {
	t.Helper()
	db, err := database.New(database.NewDefaultOptions(filepath.Join(t.TempDir(), "state.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateDatabase())

	store := database.NewTokenStore(db)
	tm := token.NewTokenManager(store, &oauth2.Config{ClientID: "client"}, "")
	if withToken {
		require.NoError(t, tm.SaveToken(context.Background(), &oauth2.Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)}))
	}
	return NewManager(store, tm, "primary", option.WithEndpoint(fake.server.URL+"/"))
}

func TestManager_SelectedCalendar(t *testing.T) {
	m := newTestManager(t, newFakeCalendar(t), false)
	ctx := context.Background()

	id, err := m.GetSelectedCalendar(ctx)
	require.NoError(t, err)
	assert.Equal(t, "primary", id, "default is used until a calendar is selected")

	assert.Error(t, m.SelectCalendar(ctx, ""))

	require.NoError(t, m.SelectCalendar(ctx, "family@group.calendar.google.com"))
	id, err = m.GetSelectedCalendar(ctx)
	require.NoError(t, err)
	assert.Equal(t, "family@group.calendar.google.com", id)
}

func TestManager_GetCalendarList(t *testing.T) {
	fake := newFakeCalendar(t)
	fake.calendars = []*gcalendar.CalendarListEntry{
		{Id: "primary", Summary: "Me", Primary: true},
		{Id: "family@group.calendar.google.com", Summary: "Family"},
	}
	m := newTestManager(t, fake, true)

	items, err := m.GetCalendarList(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Family", items[1].Summary)
	assert.Equal(t, "Bearer access", fake.lastAuth)
}

func TestManager_RequiresToken(t *testing.T) {
	m := newTestManager(t, newFakeCalendar(t), false)
	ctx := context.Background()

	_, err := m.GetCalendarList(ctx)
	assert.ErrorIs(t, err, token.ErrNoToken)

	_, err = m.Service(ctx, "")
	assert.ErrorIs(t, err, token.ErrNoToken)
}

func TestManager_Service(t *testing.T) {
	fake := newFakeCalendar(t)
	m := newTestManager(t, fake, true)
	ctx := context.Background()

	svc, err := m.Service(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "primary", svc.CalendarID())

	require.NoError(t, m.SelectCalendar(ctx, "family"))
	svc, err = m.Service(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "family", svc.CalendarID())

	svc, err = m.Service(ctx, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", svc.CalendarID())

	result, err := svc.Sync(ctx, syncFrom, syncTo, testEntries(t))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
}
