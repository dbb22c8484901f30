package calendar

import (
	"sort"
	"time"
)

// Repository serves read-only lookups over verified Data. It is never mutated
// after construction, so concurrent readers need no locking.
type Repository struct {
	data  *Data
	dates []Date // ascending
}

// NewRepository indexes data for querying. The repository takes shared,
// read-only ownership of data.
func NewRepository(data *Data) *Repository {
	return &Repository{
		data:  data,
		dates: data.Dates(),
	}
}

// GetDay returns the entry for the calendar date of t. Time-of-day is ignored.
func (r *Repository) GetDay(t time.Time) (Day, bool) {
	return r.data.Day(DateOf(t))
}

// GetDate is GetDay keyed by Date.
func (r *Repository) GetDate(d Date) (Day, bool) {
	return r.data.Day(d)
}

// HasData reports whether GetDay(t) would find an entry.
func (r *Repository) HasData(t time.Time) bool {
	_, ok := r.data.days[DateOf(t)]
	return ok
}

// GetMonth returns one slot per day of the month, index i holding day i+1.
// Days without data are nil.
func (r *Repository) GetMonth(year int, month time.Month) []*Day {
	n := DaysIn(year, month)
	out := make([]*Day, n)
	for i := range n {
		if day, ok := r.data.Day(Date{Year: year, Month: month, Day: i + 1}); ok {
			out[i] = &day
		}
	}
	return out
}

// GetScripture returns the text for an exact reference match.
func (r *Repository) GetScripture(ref string) (string, bool) {
	return r.data.Scripture(ref)
}

// DaysBetween returns the stored days in [from, to], ascending.
func (r *Repository) DaysBetween(from, to Date) []Day {
	if to.Before(from) {
		return nil
	}
	start := sort.Search(len(r.dates), func(i int) bool { return !r.dates[i].Before(from) })
	var out []Day
	for _, d := range r.dates[start:] {
		if d.After(to) {
			break
		}
		day, _ := r.data.Day(d)
		out = append(out, day)
	}
	return out
}

// Range returns the first and last stored dates.
func (r *Repository) Range() (first, last Date, ok bool) {
	if len(r.dates) == 0 {
		return Date{}, Date{}, false
	}
	return r.dates[0], r.dates[len(r.dates)-1], true
}

// Len returns the number of stored days.
func (r *Repository) Len() int { return len(r.dates) }

// ScriptureCount returns the number of scripture references.
func (r *Repository) ScriptureCount() int { return r.data.ScriptureCount() }

// Metadata returns the dataset summary.
func (r *Repository) Metadata() Metadata { return r.data.Metadata() }

// Integrity returns the verification result of the underlying dataset.
func (r *Repository) Integrity() Integrity { return r.data.Integrity() }

// LoadedAt returns when the underlying dataset was built.
func (r *Repository) LoadedAt() time.Time { return r.data.LoadedAt() }
