package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// BaseHandler contains common handler functionality
type BaseHandler struct {
	Holder *calendar.Holder
	logger zerolog.Logger
}

// NewBaseHandler creates a common base handler reading from holder
func NewBaseHandler(holder *calendar.Holder) *BaseHandler {
	return &BaseHandler{
		Holder: holder,
		logger: logging.GetLogger("handlers"),
	}
}

// currentRepository returns the published repository, replying 503 when
// nothing has loaded yet
func (h *BaseHandler) currentRepository(w http.ResponseWriter) (*calendar.Repository, bool) {
	repo := h.Holder.Current()
	if repo == nil {
		w.Header().Set("Retry-After", "5")
		h.writeError(w, http.StatusServiceUnavailable, ErrCodeDatasetUnavailable)
		return nil, false
	}
	return repo, true
}

// writeJSON writes v with the given status
func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// writeError writes the error body for code
func (h *BaseHandler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: code, Message: GetErrorMessage(code)})
}

// datasetETag is the quoted computed digest of the dataset repo serves
func datasetETag(repo *calendar.Repository) string {
	return fmt.Sprintf("%q", repo.Integrity().Computed)
}

// notModified sets the dataset ETag and reports whether the client already
// holds the current representation, in which case 304 has been written
func (h *BaseHandler) notModified(w http.ResponseWriter, r *http.Request, repo *calendar.Repository) bool {
	etag := datasetETag(repo)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	// Check If-None-Match header for ETag validation (RFC 7232)
	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch != "" && matchesETag(ifNoneMatch, etag) {
		h.logger.Debug().Str("if_none_match", ifNoneMatch).Msg("ETag matches - returning 304 Not Modified")
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// matchesETag checks if the If-None-Match header matches etag.
// Supports multiple ETags separated by commas, weak validators and wildcard '*'.
func matchesETag(ifNoneMatch, etag string) bool {
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	for _, candidate := range parseETags(ifNoneMatch) {
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// parseETags parses comma-separated ETags from If-None-Match header.
// Quoted ETags containing commas are not supported; digests never contain one.
func parseETags(header string) []string {
	var etags []string
	for _, part := range strings.Split(header, ",") {
		if etag := strings.TrimSpace(part); etag != "" {
			etags = append(etags, etag)
		}
	}
	return etags
}
