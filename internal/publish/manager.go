package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/logging"
	"github.com/belphemur/hebrew-calendar/internal/token"
)

var errNoDataset = errors.New("no dataset published yet")

// Manager handles calendar listing and selection for the authenticated user
type Manager struct {
	tokenStore      *database.TokenStore
	tokenManager    *token.TokenManager
	defaultCalendar string
	opts            []option.ClientOption
	logger          zerolog.Logger
}

// NewManager creates a new calendar manager. defaultCalendar is used until a
// calendar is selected; opts are appended to every client it creates.
func NewManager(tokenStore *database.TokenStore, tokenManager *token.TokenManager, defaultCalendar string, opts ...option.ClientOption) *Manager {
	return &Manager{
		tokenStore:      tokenStore,
		tokenManager:    tokenManager,
		defaultCalendar: defaultCalendar,
		opts:            opts,
		logger:          logging.GetLogger("calendar-manager"),
	}
}

func (m *Manager) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	client, err := m.tokenManager.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get valid token: %w", err)
	}
	return append([]option.ClientOption{option.WithHTTPClient(client)}, m.opts...), nil
}

// GetCalendarList fetches the calendars the authenticated user can see
func (m *Manager) GetCalendarList(ctx context.Context) ([]*gcalendar.CalendarListEntry, error) {
	opts, err := m.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := gcalendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	var items []*gcalendar.CalendarListEntry
	err = srv.CalendarList.List().Pages(ctx, func(page *gcalendar.CalendarList) error {
		items = append(items, page.Items...)
		return nil
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to fetch calendars")
		return nil, fmt.Errorf("failed to fetch calendars: %w", err)
	}
	return items, nil
}

// SelectCalendar saves the calendar events are published to
func (m *Manager) SelectCalendar(ctx context.Context, calendarID string) error {
	if calendarID == "" {
		return fmt.Errorf("calendar ID cannot be empty")
	}
	if err := m.tokenStore.SaveSelectedCalendar(ctx, calendarID); err != nil {
		return fmt.Errorf("failed to save calendar selection: %w", err)
	}
	m.logger.Info().Str("calendar_id", calendarID).Msg("Calendar selected")
	return nil
}

// GetSelectedCalendar returns the selected calendar, or the default when none is
func (m *Manager) GetSelectedCalendar(ctx context.Context) (string, error) {
	calendarID, err := m.tokenStore.GetSelectedCalendar(ctx)
	if err != nil {
		return "", err
	}
	if calendarID == "" {
		return m.defaultCalendar, nil
	}
	return calendarID, nil
}

// Service returns an authenticated Service for calendarID, or for the
// selected calendar when calendarID is empty
func (m *Manager) Service(ctx context.Context, calendarID string) (*Service, error) {
	if calendarID == "" {
		selected, err := m.GetSelectedCalendar(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get selected calendar: %w", err)
		}
		calendarID = selected
	}
	opts, err := m.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	return NewService(ctx, calendarID, opts...)
}
