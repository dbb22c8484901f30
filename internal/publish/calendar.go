package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/constants"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// Private extended properties set on every published event
const (
	propApp      = "app"
	propEntryKey = "entryKey"
	propKind     = "kind"
)

// maxConcurrentWrites bounds concurrent calls to the Calendar API
const maxConcurrentWrites = 2

// SyncResult counts what a sync changed
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

// Service writes entries to one Google Calendar
type Service struct {
	calendarID string
	srv        *gcalendar.Service
	logger     zerolog.Logger
}

// NewService creates a calendar client for calendarID. opts usually carry an
// authenticated HTTP client.
func NewService(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Service, error) {
	if calendarID == "" {
		return nil, errors.New("calendar ID cannot be empty")
	}
	srv, err := gcalendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Service{
		calendarID: calendarID,
		srv:        srv,
		logger:     logging.GetLogger("publish").With().Str("calendar_id", calendarID).Logger(),
	}, nil
}

// CalendarID returns the calendar this service writes to
func (s *Service) CalendarID() string {
	return s.calendarID
}

// Sync makes the calendar's events tagged by this application between from
// and to (inclusive) match entries: missing ones are created, changed ones
// updated, and the rest deleted. Events not tagged by this application are
// never touched.
func (s *Service) Sync(ctx context.Context, from, to calendar.Date, entries []Entry) (*SyncResult, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", to, from)
	}
	s.logger.Info().Str("from", from.String()).Str("to", to.String()).Int("entries", len(entries)).Msg("Starting calendar sync")

	existing, err := s.listTagged(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var (
		created   = atomic.NewInt64(0)
		updated   = atomic.NewInt64(0)
		deleted   = atomic.NewInt64(0)
		unchanged = atomic.NewInt64(0)
	)

	var wg sync.WaitGroup
	errChan := make(chan error, len(entries)+len(existing))
	sem := make(chan struct{}, maxConcurrentWrites)

	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := fn(); err != nil {
				errChan <- err
			}
		}()
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true

		events := existing[entry.Key]
		if len(events) == 0 {
			run(func() error {
				if err := s.insert(ctx, entry); err != nil {
					return err
				}
				created.Inc()
				return nil
			})
			continue
		}

		// Keep the first event for the key, remove duplicates
		current := events[0]
		for _, dup := range events[1:] {
			run(func() error {
				if err := s.delete(ctx, dup); err != nil {
					return err
				}
				deleted.Inc()
				return nil
			})
		}
		if eventMatches(current, entry) {
			unchanged.Inc()
			continue
		}
		run(func() error {
			if err := s.update(ctx, current, entry); err != nil {
				return err
			}
			updated.Inc()
			return nil
		})
	}

	for key, events := range existing {
		if seen[key] {
			continue
		}
		for _, stale := range events {
			run(func() error {
				if err := s.delete(ctx, stale); err != nil {
					return err
				}
				deleted.Inc()
				return nil
			})
		}
	}

	wg.Wait()
	close(errChan)

	result := &SyncResult{
		Created:   int(created.Load()),
		Updated:   int(updated.Load()),
		Deleted:   int(deleted.Load()),
		Unchanged: int(unchanged.Load()),
	}

	var allErrors []error
	for err := range errChan {
		allErrors = append(allErrors, err)
	}
	if len(allErrors) > 0 {
		joinedErr := errors.Join(allErrors...)
		s.logger.Error().Err(joinedErr).Int("error_count", len(allErrors)).Msg("Errors occurred during sync")
		return result, joinedErr
	}

	s.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("unchanged", result.Unchanged).
		Msg("Calendar sync completed")
	return result, nil
}

// listTagged returns this application's events in range, grouped by entry key
func (s *Service) listTagged(ctx context.Context, from, to calendar.Date) (map[string][]*gcalendar.Event, error) {
	timeMin := from.Time().Format(time.RFC3339)
	timeMax := to.AddDays(1).Time().Format(time.RFC3339)

	byKey := make(map[string][]*gcalendar.Event)
	err := s.srv.Events.List(s.calendarID).
		PrivateExtendedProperty(propApp+"="+constants.AppIdentifier).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		Pages(ctx, func(page *gcalendar.Events) error {
			for _, event := range page.Items {
				key := entryKeyOf(event)
				if key == "" {
					continue
				}
				byKey[key] = append(byKey[key], event)
			}
			return nil
		})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list events for date range")
		return nil, fmt.Errorf("failed to list events for date range: %w", err)
	}
	s.logger.Debug().Int("keys", len(byKey)).Msg("Fetched existing events")
	return byKey, nil
}

func (s *Service) insert(ctx context.Context, entry Entry) error {
	event, err := s.srv.Events.Insert(s.calendarID, newEvent(entry)).Context(ctx).Do()
	if err != nil {
		s.logger.Error().Err(err).Str("key", entry.Key).Msg("Failed to create event")
		return fmt.Errorf("failed to create event %s: %w", entry.Key, err)
	}
	s.logger.Debug().Str("key", entry.Key).Str("event_id", event.Id).Msg("Created event")
	return nil
}

func (s *Service) update(ctx context.Context, current *gcalendar.Event, entry Entry) error {
	next := newEvent(entry)
	next.Id = current.Id
	if _, err := s.srv.Events.Update(s.calendarID, current.Id, next).Context(ctx).Do(); err != nil {
		s.logger.Error().Err(err).Str("key", entry.Key).Str("event_id", current.Id).Msg("Failed to update event")
		return fmt.Errorf("failed to update event %s: %w", entry.Key, err)
	}
	s.logger.Debug().Str("key", entry.Key).Str("event_id", current.Id).Msg("Updated event")
	return nil
}

func (s *Service) delete(ctx context.Context, event *gcalendar.Event) error {
	if err := s.srv.Events.Delete(s.calendarID, event.Id).Context(ctx).Do(); err != nil {
		s.logger.Error().Err(err).Str("event_id", event.Id).Msg("Failed to delete event")
		return fmt.Errorf("failed to delete event %s: %w", event.Id, err)
	}
	s.logger.Debug().Str("event_id", event.Id).Msg("Deleted event")
	return nil
}

func newEvent(entry Entry) *gcalendar.Event {
	return &gcalendar.Event{
		Summary:      entry.Summary,
		Description:  entry.Description,
		Start:        &gcalendar.EventDateTime{Date: entry.Date.String()},
		End:          &gcalendar.EventDateTime{Date: entry.Date.AddDays(1).String()},
		Transparency: "transparent",
		ExtendedProperties: &gcalendar.EventExtendedProperties{
			Private: map[string]string{
				propApp:      constants.AppIdentifier,
				propEntryKey: entry.Key,
				propKind:     entry.Kind.String(),
			},
		},
	}
}

func entryKeyOf(event *gcalendar.Event) string {
	if event.ExtendedProperties == nil || event.ExtendedProperties.Private == nil {
		return ""
	}
	if event.ExtendedProperties.Private[propApp] != constants.AppIdentifier {
		return ""
	}
	return event.ExtendedProperties.Private[propEntryKey]
}

func eventMatches(event *gcalendar.Event, entry Entry) bool {
	if event.Start == nil || event.End == nil {
		return false
	}
	return event.Summary == entry.Summary &&
		event.Description == entry.Description &&
		event.Start.Date == entry.Date.String() &&
		event.End.Date == entry.Date.AddDays(1).String()
}
