package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/viewhelpers"
)

// CalendarHandler serves day, month and scripture lookups
type CalendarHandler struct {
	*BaseHandler
	WeekStart time.Weekday
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(baseHandler *BaseHandler, weekStart time.Weekday) *CalendarHandler {
	return &CalendarHandler{
		BaseHandler: baseHandler,
		WeekStart:   weekStart,
	}
}

// RegisterRoutes registers calendar query routes
func (h *CalendarHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/days/{date}", h.handleDay)
	mux.HandleFunc("GET /api/months/{year}/{month}", h.handleMonth)
	mux.HandleFunc("GET /api/scriptures", h.handleScripture)
}

// DayResponse is a dataset day with its phase glyph and feast scripture texts
type DayResponse struct {
	calendar.Day
	PhaseGlyph string            `json:"phaseGlyph"`
	Scriptures map[string]string `json:"scriptures,omitempty"`
}

func newDayResponse(repo *calendar.Repository, day calendar.Day) DayResponse {
	resp := DayResponse{Day: day, PhaseGlyph: day.Phase.Glyph()}
	if day.Feast != nil {
		for _, ref := range day.Feast.BibleRefs {
			text, ok := repo.GetScripture(ref)
			if !ok {
				continue
			}
			if resp.Scriptures == nil {
				resp.Scriptures = make(map[string]string)
			}
			resp.Scriptures[ref] = text
		}
	}
	return resp
}

// MonthResponse lists one slot per day of the month; days without data are null
type MonthResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*DayResponse `json:"days"`
}

// WeeksResponse is a month laid out in full week rows
type WeeksResponse struct {
	Year      int                         `json:"year"`
	Month     int                         `json:"month"`
	Name      string                      `json:"name"`
	WeekStart string                      `json:"weekStart"`
	Weeks     [][]viewhelpers.CalendarDay `json:"weeks"`
}

// ScriptureResponse is the text of one reference
type ScriptureResponse struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

func (h *CalendarHandler) handleDay(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleDay").Logger()

	date, err := calendar.ParseDate(r.PathValue("date"))
	if err != nil {
		handlerLogger.Debug().Err(err).Str("date", r.PathValue("date")).Msg("Invalid date")
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidDate)
		return
	}

	repo, ok := h.currentRepository(w)
	if !ok {
		return
	}
	if h.notModified(w, r, repo) {
		return
	}

	day, found := repo.GetDate(date)
	if !found {
		h.writeError(w, http.StatusNotFound, ErrCodeDayNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, newDayResponse(repo, day))
}

func (h *CalendarHandler) handleMonth(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleMonth").Logger()

	year, errYear := strconv.Atoi(r.PathValue("year"))
	month, errMonth := strconv.Atoi(r.PathValue("month"))
	if errYear != nil || errMonth != nil || month < 1 || month > 12 || year < 1 || year > 9999 {
		handlerLogger.Debug().Str("year", r.PathValue("year")).Str("month", r.PathValue("month")).Msg("Invalid month")
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidMonth)
		return
	}

	layout := r.URL.Query().Get("layout")
	if layout != "" && layout != "days" && layout != "weeks" {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidLayout)
		return
	}

	repo, ok := h.currentRepository(w)
	if !ok {
		return
	}
	if h.notModified(w, r, repo) {
		return
	}

	if layout == "weeks" {
		name, weeks := viewhelpers.StructureMonth(repo, year, time.Month(month), h.WeekStart)
		h.writeJSON(w, http.StatusOK, WeeksResponse{
			Year:      year,
			Month:     month,
			Name:      name,
			WeekStart: h.WeekStart.String(),
			Weeks:     weeks,
		})
		return
	}

	slots := repo.GetMonth(year, time.Month(month))
	resp := MonthResponse{Year: year, Month: month, Days: make([]*DayResponse, len(slots))}
	for i, day := range slots {
		if day == nil {
			continue
		}
		dr := newDayResponse(repo, *day)
		resp.Days[i] = &dr
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *CalendarHandler) handleScripture(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		h.writeError(w, http.StatusBadRequest, ErrCodeMissingRef)
		return
	}

	repo, ok := h.currentRepository(w)
	if !ok {
		return
	}
	if h.notModified(w, r, repo) {
		return
	}

	text, found := repo.GetScripture(ref)
	if !found {
		h.writeError(w, http.StatusNotFound, ErrCodeScriptureNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, ScriptureResponse{Ref: ref, Text: text})
}
