package handlers

import (
	"net/http"
	"time"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/database"
)

// recentLoadCount is how many load attempts /api/status reports
const recentLoadCount = 10

// StatusHandler reports dataset and reload health
type StatusHandler struct {
	*BaseHandler
	Loads      *database.LoadStore // optional
	NextReload func() time.Time    // optional
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(baseHandler *BaseHandler, loads *database.LoadStore, nextReload func() time.Time) *StatusHandler {
	return &StatusHandler{
		BaseHandler: baseHandler,
		Loads:       loads,
		NextReload:  nextReload,
	}
}

// RegisterRoutes registers status routes
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// DatasetStatus summarizes the published dataset
type DatasetStatus struct {
	First       calendar.Date      `json:"first"`
	Last        calendar.Date      `json:"last"`
	Days        int                `json:"days"`
	Scriptures  int                `json:"scriptures"`
	Integrity   calendar.Integrity `json:"integrity"`
	GeneratedAt string             `json:"generatedAt,omitempty"`
	LoadedAt    time.Time          `json:"loadedAt"`
}

// StatusResponse is the body of /api/status
type StatusResponse struct {
	Ready       bool                  `json:"ready"`
	Dataset     *DatasetStatus        `json:"dataset,omitempty"`
	NextReload  *time.Time            `json:"nextReload,omitempty"`
	RecentLoads []database.LoadRecord `json:"recentLoads,omitempty"`
}

func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleStatus").Logger()

	resp := StatusResponse{}
	if repo := h.Holder.Current(); repo != nil {
		first, last, _ := repo.Range()
		resp.Ready = true
		resp.Dataset = &DatasetStatus{
			First:       first,
			Last:        last,
			Days:        repo.Len(),
			Scriptures:  repo.ScriptureCount(),
			Integrity:   repo.Integrity(),
			GeneratedAt: repo.Metadata().GeneratedAt,
			LoadedAt:    repo.LoadedAt(),
		}
	}

	if h.NextReload != nil {
		if next := h.NextReload(); !next.IsZero() {
			resp.NextReload = &next
		}
	}

	if h.Loads != nil {
		loads, err := h.Loads.RecentLoads(r.Context(), recentLoadCount)
		if err != nil {
			handlerLogger.Error().Err(err).Msg("Failed to read load history")
			h.writeError(w, http.StatusInternalServerError, ErrCodeHistoryUnavailable)
			return
		}
		resp.RecentLoads = loads
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleHealth answers 200 once a dataset is published, 503 before
func (h *StatusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.Holder.Ready() {
		h.writeError(w, http.StatusServiceUnavailable, ErrCodeDatasetUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
