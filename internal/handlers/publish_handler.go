package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/constants"
	"github.com/belphemur/hebrew-calendar/internal/publish"
	"github.com/belphemur/hebrew-calendar/internal/token"
)

// PublishHandler manages manual publishing to Google Calendar
type PublishHandler struct {
	*BaseHandler
	CalendarManager *publish.Manager
	Kinds           []constants.EventKind
	LookAheadDays   int
}

// NewPublishHandler creates a new publish handler
func NewPublishHandler(baseHandler *BaseHandler, calendarManager *publish.Manager, kinds []constants.EventKind, lookAheadDays int) *PublishHandler {
	return &PublishHandler{
		BaseHandler:     baseHandler,
		CalendarManager: calendarManager,
		Kinds:           kinds,
		LookAheadDays:   lookAheadDays,
	}
}

// RegisterRoutes registers publish routes
func (h *PublishHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/publish", h.handlePublish)
}

// PublishRequest is the optional body of POST /api/publish. Empty fields
// fall back to today, the configured look-ahead and the selected calendar.
type PublishRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	CalendarID string `json:"calendarId"`
}

// PublishResponse reports what a publish changed
type PublishResponse struct {
	CalendarID string             `json:"calendarId"`
	From       calendar.Date      `json:"from"`
	To         calendar.Date      `json:"to"`
	Result     publish.SyncResult `json:"result"`
}

func (h *PublishHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handlePublish").Logger()

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest)
		return
	}

	from, to := publish.DefaultRange(time.Now(), h.LookAheadDays)
	var err error
	if req.From != "" {
		if from, err = calendar.ParseDate(req.From); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrCodeInvalidDate)
			return
		}
	}
	if req.To != "" {
		if to, err = calendar.ParseDate(req.To); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrCodeInvalidDate)
			return
		}
	}
	if to.Before(from) {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidDate)
		return
	}

	repo, ok := h.currentRepository(w)
	if !ok {
		return
	}

	svc, err := h.CalendarManager.Service(r.Context(), req.CalendarID)
	if errors.Is(err, token.ErrNoToken) {
		h.writeError(w, http.StatusUnauthorized, ErrCodeAuthRequired)
		return
	}
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to create calendar client")
		h.writeError(w, http.StatusBadGateway, ErrCodePublishFailed)
		return
	}

	result, err := publish.Publish(r.Context(), svc, repo, from, to, h.Kinds)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Publish failed")
		h.writeError(w, http.StatusBadGateway, ErrCodePublishFailed)
		return
	}

	handlerLogger.Info().Str("calendar_id", svc.CalendarID()).Int("created", result.Created).Int("updated", result.Updated).Int("deleted", result.Deleted).Msg("Published events")
	h.writeJSON(w, http.StatusOK, PublishResponse{
		CalendarID: svc.CalendarID(),
		From:       from,
		To:         to,
		Result:     *result,
	})
}
