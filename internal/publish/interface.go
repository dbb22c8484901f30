package publish

import (
	"context"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/constants"
)

// Publisher defines the interface for writing entries to a calendar
type Publisher interface {
	// CalendarID returns the target calendar
	CalendarID() string

	// Sync makes the published events between from and to match entries
	Sync(ctx context.Context, from, to calendar.Date, entries []Entry) (*SyncResult, error)
}

// Ensure Service implements Publisher
var _ Publisher = (*Service)(nil)

// Publish builds the entries of repo for [from, to] and syncs them through p
func Publish(ctx context.Context, p Publisher, repo *calendar.Repository, from, to calendar.Date, kinds []constants.EventKind) (*SyncResult, error) {
	if repo == nil {
		return nil, errNoDataset
	}
	return p.Sync(ctx, from, to, BuildEntries(repo, from, to, kinds))
}
