package calendar

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// FeastDay is an appointed feast attached to a day.
type FeastDay struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	BibleRefs   []string `json:"bibleRefs"`
}

func (f *FeastDay) clone() *FeastDay {
	if f == nil {
		return nil
	}
	c := &FeastDay{Name: f.Name, BibleRefs: slices.Clone(f.BibleRefs)}
	if c.BibleRefs == nil {
		c.BibleRefs = []string{}
	}
	if f.Description != nil {
		desc := *f.Description
		c.Description = &desc
	}
	return c
}

// Day is one dataset entry.
type Day struct {
	Date         Date      `json:"date"`
	Phase        MoonPhase `json:"phase"`
	Angle        float64   `json:"angle"`
	Feast        *FeastDay `json:"feast,omitempty"`
	IsSabbath    bool      `json:"isSabbath"`
	IsNewMoon    bool      `json:"isNewMoon"`
	IsNewYear    bool      `json:"isNewYear"`
	NewMoonAngle *float64  `json:"newMoonAngle,omitempty"`
}

// Clone returns a deep copy of d.
func (d Day) Clone() Day {
	d.Feast = d.Feast.clone()
	if d.NewMoonAngle != nil {
		a := *d.NewMoonAngle
		d.NewMoonAngle = &a
	}
	return d
}

// NewMoonMark is a new moon listed in the dataset summary.
type NewMoonMark struct {
	Date  Date    `json:"date"`
	Angle float64 `json:"angle"`
}

// Metadata is the optional summary the generator writes next to the days.
type Metadata struct {
	GeneratedAt string        `json:"generatedAt,omitempty"`
	RangeStart  *Date         `json:"rangeStart,omitempty"`
	RangeEnd    *Date         `json:"rangeEnd,omitempty"`
	NewMoons    []NewMoonMark `json:"newMoons,omitempty"`
	Sabbaths    []Date        `json:"sabbaths,omitempty"`
	NewYears    []Date        `json:"newYears,omitempty"`
}

func (m Metadata) clone() Metadata {
	if m.RangeStart != nil {
		s := *m.RangeStart
		m.RangeStart = &s
	}
	if m.RangeEnd != nil {
		e := *m.RangeEnd
		m.RangeEnd = &e
	}
	m.NewMoons = slices.Clone(m.NewMoons)
	m.Sabbaths = slices.Clone(m.Sabbaths)
	m.NewYears = slices.Clone(m.NewYears)
	return m
}

// Integrity describes how a dataset was verified.
type Integrity struct {
	// Stored is the digest carried by the dataset, empty when it had none.
	Stored string `json:"stored,omitempty"`
	// Computed is the digest of the canonical remainder.
	Computed string `json:"computed"`
	// Verified is true when Stored was present and matched.
	Verified bool `json:"verified"`
}

// Data is the verified dataset. It has no mutators and hands out copies only.
type Data struct {
	days       map[Date]Day
	scriptures map[string]string
	metadata   Metadata
	integrity  Integrity
	loadedAt   time.Time
}

// NewData copies its inputs into a new Data. Two days sharing a date is an error.
func NewData(days []Day, scriptures map[string]string, metadata Metadata, integrity Integrity) (*Data, error) {
	index := make(map[Date]Day, len(days))
	for _, d := range days {
		if _, dup := index[d.Date]; dup {
			return nil, fmt.Errorf("duplicate day %s", d.Date)
		}
		index[d.Date] = d.Clone()
	}

	scr := maps.Clone(scriptures)
	if scr == nil {
		scr = map[string]string{}
	}

	return &Data{
		days:       index,
		scriptures: scr,
		metadata:   metadata.clone(),
		integrity:  integrity,
		loadedAt:   time.Now(),
	}, nil
}

// Day returns a copy of the entry for date.
func (d *Data) Day(date Date) (Day, bool) {
	day, ok := d.days[date]
	if !ok {
		return Day{}, false
	}
	return day.Clone(), true
}

// Scripture returns the text for an exact reference.
func (d *Data) Scripture(ref string) (string, bool) {
	text, ok := d.scriptures[ref]
	return text, ok
}

// Dates returns every stored date in ascending order.
func (d *Data) Dates() []Date {
	dates := make([]Date, 0, len(d.days))
	for date := range d.days {
		dates = append(dates, date)
	}
	slices.SortFunc(dates, compareDates)
	return dates
}

// ScriptureRefs returns every scripture reference, sorted.
func (d *Data) ScriptureRefs() []string {
	return slices.Sorted(maps.Keys(d.scriptures))
}

// DayCount returns the number of stored days.
func (d *Data) DayCount() int { return len(d.days) }

// ScriptureCount returns the number of stored scripture references.
func (d *Data) ScriptureCount() int { return len(d.scriptures) }

// Metadata returns a copy of the dataset summary.
func (d *Data) Metadata() Metadata { return d.metadata.clone() }

// Integrity returns the verification result.
func (d *Data) Integrity() Integrity { return d.integrity }

// LoadedAt returns when the Data was built.
func (d *Data) LoadedAt() time.Time { return d.loadedAt }

func compareDates(a, b Date) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	}
	return 0
}
