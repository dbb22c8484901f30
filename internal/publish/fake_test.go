package publish

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendar is an in-memory stand-in for the Calendar API events and
// calendarList endpoints
type fakeCalendar struct {
	mu        sync.Mutex
	events    map[string]*gcalendar.Event
	calendars []*gcalendar.CalendarListEntry
	nextID    int
	pageSize  int
	writes    int
	lastAuth  string
	failWrite func(r *http.Request) bool

	server *httptest.Server
}

func newFakeCalendar(t *testing.T) *fakeCalendar {
	t.Helper()
	f := &fakeCalendar{events: map[string]*gcalendar.Event{}, pageSize: 2}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/{calendarId}/events", f.list)
	mux.HandleFunc("POST /calendars/{calendarId}/events", f.insert)
	mux.HandleFunc("PUT /calendars/{calendarId}/events/{eventId}", f.update)
	mux.HandleFunc("DELETE /calendars/{calendarId}/events/{eventId}", f.delete)
	mux.HandleFunc("GET /users/me/calendarList", f.calendarList)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCalendar) options() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(f.server.URL + "/"),
		option.WithHTTPClient(f.server.Client()),
	}
}

// seed stores event as if it had been created earlier and returns its ID
func (f *fakeCalendar) seed(event *gcalendar.Event) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.Id = fmt.Sprintf("evt-%03d", f.nextID)
	f.events[event.Id] = event
	return event.Id
}

func (f *fakeCalendar) snapshot() map[string]*gcalendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*gcalendar.Event, len(f.events))
	for id, e := range f.events {
		out[id] = e
	}
	return out
}

func (f *fakeCalendar) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeCalendar) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	filters := r.URL.Query()["privateExtendedProperty"]
	var ids []string
	for id, e := range f.events {
		if matchesFilters(e, filters) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	end := min(offset+f.pageSize, len(ids))
	page := &gcalendar.Events{}
	for _, id := range ids[offset:end] {
		page.Items = append(page.Items, f.events[id])
	}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, page)
}

func matchesFilters(e *gcalendar.Event, filters []string) bool {
	for _, filter := range filters {
		key, value, _ := strings.Cut(filter, "=")
		if e.ExtendedProperties == nil || e.ExtendedProperties.Private[key] != value {
			return false
		}
	}
	return true
}

func (f *fakeCalendar) insert(w http.ResponseWriter, r *http.Request) {
	var event gcalendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.failWrite != nil && f.failWrite(r) {
		http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
		return
	}
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	f.seed(&event)
	writeJSON(w, http.StatusOK, &event)
}

func (f *fakeCalendar) update(w http.ResponseWriter, r *http.Request) {
	var event gcalendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("eventId")
	if _, ok := f.events[id]; !ok {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
		return
	}
	f.writes++
	event.Id = id
	f.events[id] = &event
	writeJSON(w, http.StatusOK, &event)
}

func (f *fakeCalendar) delete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("eventId")
	if _, ok := f.events[id]; !ok {
		http.Error(w, `{"error":{"code":410,"message":"deleted"}}`, http.StatusGone)
		return
	}
	f.writes++
	delete(f.events, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeCalendar) calendarList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	writeJSON(w, http.StatusOK, &gcalendar.CalendarList{Items: f.calendars})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
