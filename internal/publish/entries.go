// Package publish mirrors dataset days into a Google Calendar.
package publish

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/constants"
)

// Entry is one all-day event derived from a dataset day
type Entry struct {
	Key         string
	Kind        constants.EventKind
	Date        calendar.Date
	Summary     string
	Description string
}

// EntryKey identifies the event for kind on date, e.g. "feast:2025-04-13"
func EntryKey(kind constants.EventKind, date calendar.Date) string {
	return kind.String() + ":" + date.String()
}

// DefaultRange is the window published when none is given: today through
// lookAheadDays days later
func DefaultRange(now time.Time, lookAheadDays int) (from, to calendar.Date) {
	from = calendar.DateOf(now)
	return from, from.AddDays(lookAheadDays)
}

// BuildEntries derives the events for every day of repo between from and to
// (inclusive) matching kinds. Entries are ordered by date, then by kind in
// the order of constants.GetAllEventKinds.
func BuildEntries(repo *calendar.Repository, from, to calendar.Date, kinds []constants.EventKind) []Entry {
	if repo == nil {
		return nil
	}

	var entries []Entry
	for _, day := range repo.DaysBetween(from, to) {
		for _, kind := range constants.GetAllEventKinds() {
			if !slices.Contains(kinds, kind) {
				continue
			}
			entry, ok := entryFor(repo, day, kind)
			if !ok {
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func entryFor(repo *calendar.Repository, day calendar.Day, kind constants.EventKind) (Entry, bool) {
	entry := Entry{Key: EntryKey(kind, day.Date), Kind: kind, Date: day.Date}

	switch kind {
	case constants.EventKindFeast:
		if day.Feast == nil {
			return Entry{}, false
		}
		entry.Summary = "🎺 " + day.Feast.Name
		entry.Description = feastDescription(repo, day.Feast)
	case constants.EventKindSabbath:
		if !day.IsSabbath {
			return Entry{}, false
		}
		entry.Summary = "🕯️ Sabbath"
		entry.Description = "Weekly Sabbath"
	case constants.EventKindNewMoon:
		if !day.IsNewMoon {
			return Entry{}, false
		}
		entry.Summary = day.Phase.Glyph() + " New Moon"
		if day.NewMoonAngle != nil {
			entry.Description = fmt.Sprintf("New month begins. Moon %.2f° from the sun at sunset.", *day.NewMoonAngle)
		} else {
			entry.Description = "New month begins."
		}
	case constants.EventKindNewYear:
		if !day.IsNewYear {
			return Entry{}, false
		}
		entry.Summary = "🌾 New Year"
		entry.Description = "First day of the first month."
	default:
		return Entry{}, false
	}

	entry.Description += fmt.Sprintf("\n\n[%s]", constants.AppIdentifier)
	return entry, true
}

// feastDescription lists the feast's description followed by each reference
// and its text, when the dataset carries it
func feastDescription(repo *calendar.Repository, feast *calendar.FeastDay) string {
	var b strings.Builder
	if feast.Description != nil && *feast.Description != "" {
		b.WriteString(*feast.Description)
	}
	for _, ref := range feast.BibleRefs {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ref)
		if text, ok := repo.GetScripture(ref); ok {
			b.WriteString(": ")
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		b.WriteString(feast.Name)
	}
	return b.String()
}
