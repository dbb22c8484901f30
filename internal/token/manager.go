package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"

	"github.com/belphemur/hebrew-calendar/internal/config"
	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// ErrNoToken is returned when neither the store nor the token file hold a token
var ErrNoToken = errors.New("no OAuth token found - authenticate first")

// NewOAuthConfig builds the Google OAuth client configuration
func NewOAuthConfig(cfg *config.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gcalendar.CalendarEventsScope,
			gcalendar.CalendarCalendarlistReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// TokenManager handles OAuth token storage and refreshing
type TokenManager struct {
	tokenStore  *database.TokenStore
	oauthConfig *oauth2.Config
	tokenFile   string
	logger      zerolog.Logger
}

// NewTokenManager creates a new TokenManager. tokenFile may be empty; when set,
// a token found there is imported on first use and refreshed tokens are
// written back to it.
func NewTokenManager(tokenStore *database.TokenStore, oauthConfig *oauth2.Config, tokenFile string) *TokenManager {
	return &TokenManager{
		tokenStore:  tokenStore,
		oauthConfig: oauthConfig,
		tokenFile:   tokenFile,
		logger:      logging.GetLogger("token-manager"),
	}
}

// OAuthConfig returns the client configuration tokens are refreshed with
func (tm *TokenManager) OAuthConfig() *oauth2.Config {
	return tm.oauthConfig
}

// HasToken reports whether a token is available
func (tm *TokenManager) HasToken(ctx context.Context) (bool, error) {
	token, err := tm.load(ctx)
	if err != nil {
		return false, err
	}
	return token != nil, nil
}

// GetValidToken retrieves a valid token, refreshing it if necessary
func (tm *TokenManager) GetValidToken(ctx context.Context) (*oauth2.Token, error) {
	token, err := tm.load(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrNoToken
	}

	if !token.Valid() {
		tm.logger.Debug().Time("expiry", token.Expiry).Msg("Token expired, refreshing")
		newToken, err := tm.oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			tm.logger.Error().Err(err).Msg("Failed to refresh token")
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		if err := tm.SaveToken(ctx, newToken); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		token = newToken
	}

	return token, nil
}

// SaveToken stores token and mirrors it to the token file
func (tm *TokenManager) SaveToken(ctx context.Context, token *oauth2.Token) error {
	if err := tm.tokenStore.SaveToken(ctx, token); err != nil {
		return err
	}
	if tm.tokenFile == "" {
		return nil
	}
	if err := writeTokenFile(tm.tokenFile, token); err != nil {
		tm.logger.Error().Err(err).Str("path", tm.tokenFile).Msg("Failed to write token file")
		return err
	}
	return nil
}

// HTTPClient returns an HTTP client authenticated with a valid token
func (tm *TokenManager) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := tm.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return tm.oauthConfig.Client(ctx, token), nil
}

func (tm *TokenManager) load(ctx context.Context) (*oauth2.Token, error) {
	token, err := tm.tokenStore.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}
	if token != nil || tm.tokenFile == "" {
		return token, nil
	}

	token, err = readTokenFile(tm.tokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tm.logger.Info().Str("path", tm.tokenFile).Msg("Imported OAuth token from file")
	if err := tm.tokenStore.SaveToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func readTokenFile(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return &token, nil
}

func writeTokenFile(path string, token *oauth2.Token) error {
	raw, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
