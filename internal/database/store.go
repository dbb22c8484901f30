package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// TokenStore keeps the Google OAuth token and the publish target calendar
type TokenStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewTokenStore creates a new token store
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{
		db:     db.Conn(),
		logger: logging.GetLogger("token-store"),
	}
}

// SaveToken stores token, replacing any previous one
func (s *TokenStore) SaveToken(ctx context.Context, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO oauth_tokens (id, token_data, updated_at)
VALUES (1, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET token_data = excluded.token_data, updated_at = excluded.updated_at`, tokenJSON)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to save OAuth token")
		return fmt.Errorf("failed to save token: %w", err)
	}
	s.logger.Debug().Time("expiry", token.Expiry).Msg("OAuth token saved")
	return nil
}

// GetToken returns the saved token, or nil when none is stored
func (s *TokenStore) GetToken(ctx context.Context) (*oauth2.Token, error) {
	var tokenJSON []byte
	err := s.db.QueryRowContext(ctx, `SELECT token_data FROM oauth_tokens WHERE id = 1`).Scan(&tokenJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// ClearToken removes the saved token
func (s *TokenStore) ClearToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// SaveSelectedCalendar remembers the calendar events are published to
func (s *TokenStore) SaveSelectedCalendar(ctx context.Context, calendarID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO calendar_settings (id, calendar_id, updated_at)
VALUES (1, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET calendar_id = excluded.calendar_id, updated_at = excluded.updated_at`, calendarID)
	if err != nil {
		return fmt.Errorf("failed to save calendar ID: %w", err)
	}
	return nil
}

// GetSelectedCalendar returns the remembered calendar, empty when unset
func (s *TokenStore) GetSelectedCalendar(ctx context.Context) (string, error) {
	var calendarID string
	err := s.db.QueryRowContext(ctx, `SELECT calendar_id FROM calendar_settings WHERE id = 1`).Scan(&calendarID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to retrieve calendar ID: %w", err)
	}
	return calendarID, nil
}
