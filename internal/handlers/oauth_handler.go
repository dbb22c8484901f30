package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/belphemur/hebrew-calendar/internal/publish"
	"github.com/belphemur/hebrew-calendar/internal/token"
)

const stateCookie = "oauth_state"

// OAuthHandler manages Google sign-in and calendar selection
type OAuthHandler struct {
	*BaseHandler
	TokenManager    *token.TokenManager
	CalendarManager *publish.Manager
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(baseHandler *BaseHandler, tokenManager *token.TokenManager, calendarManager *publish.Manager) *OAuthHandler {
	return &OAuthHandler{
		BaseHandler:     baseHandler,
		TokenManager:    tokenManager,
		CalendarManager: calendarManager,
	}
}

// RegisterRoutes registers the OAuth and calendar selection routes
func (h *OAuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth", h.handleAuth)
	mux.HandleFunc("GET /oauth/callback", h.handleCallback)
	mux.HandleFunc("GET /api/calendars", h.handleCalendarList)
	mux.HandleFunc("POST /api/calendars/selected", h.handleCalendarSelection)
}

// handleAuth initiates the OAuth flow
func (h *OAuthHandler) handleAuth(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/oauth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	url := h.TokenManager.OAuthConfig().AuthCodeURL(state)
	h.logger.Debug().Msg("Redirecting to Google sign-in")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback processes the OAuth callback
func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCallback").Logger()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		handlerLogger.Warn().Msg("OAuth state mismatch")
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidState)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/oauth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	tok, err := h.TokenManager.OAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Token exchange failed")
		h.writeError(w, http.StatusBadGateway, ErrCodeTokenExchange)
		return
	}

	if err := h.TokenManager.SaveToken(r.Context(), tok); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to save token")
		h.writeError(w, http.StatusInternalServerError, ErrCodeUnknown)
		return
	}

	handlerLogger.Info().Msg("Google account connected")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
}

// CalendarEntry is one calendar the user can publish to
type CalendarEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

// CalendarListResponse lists calendars and the current selection
type CalendarListResponse struct {
	Selected  string          `json:"selected"`
	Calendars []CalendarEntry `json:"calendars"`
}

// handleCalendarList shows the calendars available for publishing
func (h *OAuthHandler) handleCalendarList(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCalendarList").Logger()

	items, err := h.CalendarManager.GetCalendarList(r.Context())
	if errors.Is(err, token.ErrNoToken) {
		h.writeError(w, http.StatusUnauthorized, ErrCodeAuthRequired)
		return
	}
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to fetch calendars")
		h.writeError(w, http.StatusBadGateway, ErrCodeCalendarFetchError)
		return
	}

	selected, err := h.CalendarManager.GetSelectedCalendar(r.Context())
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to read selected calendar")
		h.writeError(w, http.StatusInternalServerError, ErrCodeUnknown)
		return
	}

	resp := CalendarListResponse{Selected: selected, Calendars: make([]CalendarEntry, 0, len(items))}
	for _, item := range items {
		resp.Calendars = append(resp.Calendars, CalendarEntry{ID: item.Id, Summary: item.Summary, Primary: item.Primary})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CalendarSelectionRequest is the body of POST /api/calendars/selected
type CalendarSelectionRequest struct {
	CalendarID string `json:"calendarId"`
}

// handleCalendarSelection saves the calendar events are published to
func (h *OAuthHandler) handleCalendarSelection(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCalendarSelection").Logger()

	var req CalendarSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CalendarID == "" {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest)
		return
	}

	if err := h.CalendarManager.SelectCalendar(r.Context(), req.CalendarID); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to save calendar selection")
		h.writeError(w, http.StatusInternalServerError, ErrCodeCalendarSelectError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"selected": req.CalendarID})
}
