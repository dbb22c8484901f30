package calendar

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func testData(t *testing.T) *Data {
	t.Helper()
	days := []Day{
		{Date: NewDate(2025, time.March, 1), Phase: WaxingCrescent, Angle: 20.5, IsSabbath: true},
		{Date: NewDate(2025, time.March, 13), Phase: WaxingGibbous, Angle: 160},
		{Date: NewDate(2025, time.March, 14), Phase: FullMoon, Angle: 178.2},
		{Date: NewDate(2025, time.March, 30), Phase: NewMoon, Angle: 2.1, IsNewMoon: true, IsNewYear: true, NewMoonAngle: floatPtr(0.8)},
		{Date: NewDate(2025, time.April, 12), Phase: FullMoon, Angle: 179.1, Feast: &FeastDay{
			Name:        "Passover",
			Description: strPtr("Between the evenings"),
			BibleRefs:   []string{"Leviticus 23:5"},
		}},
	}
	scriptures := map[string]string{
		"Leviticus 23:5": "In the fourteenth day of the first month at even is the LORD'S passover.",
	}
	data, err := NewData(days, scriptures, Metadata{GeneratedAt: "2025-01-01T00:00:00"}, Integrity{Computed: "abc", Stored: "abc", Verified: true})
	require.NoError(t, err)
	return data
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Date
		wantErr  bool
	}{
		{"plain date", "2025-03-13", Date{2025, time.March, 13}, false},
		{"with time", "2025-03-13T18:45:00", Date{2025, time.March, 13}, false},
		{"with fractional seconds", "2025-03-13T23:59:59.999", Date{2025, time.March, 13}, false},
		{"with minutes only", "2025-03-13T06:00", Date{2025, time.March, 13}, false},
		{"space separated", "2025-03-13 06:00:00", Date{2025, time.March, 13}, false},
		{"leap day", "2024-02-29", Date{2024, time.February, 29}, false},
		{"invalid leap day", "2023-02-29", Date{}, true},
		{"not a date", "tomorrow", Date{}, true},
		{"empty", "", Date{}, true},
		{"leading space", " 2025-03-13", Date{}, true},
		{"trailing newline", "2025-03-13\n", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDate_Helpers(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, "2024-02-28", d.String())
	assert.Equal(t, NewDate(2024, time.February, 29), d.AddDays(1))
	assert.Equal(t, NewDate(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, NewDate(2023, time.December, 31), NewDate(2024, time.January, 1).AddDays(-1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
	assert.True(t, Date{}.IsZero())
	assert.Equal(t, time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), d.Time())
}

func TestDateOf_DiscardsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	assert.Equal(t, NewDate(2025, time.March, 13), DateOf(time.Date(2025, time.March, 13, 23, 59, 59, 0, loc)))
	assert.Equal(t, NewDate(2025, time.March, 13), DateOf(time.Date(2025, time.March, 13, 0, 0, 0, 1, time.UTC)))
}

func TestDate_JSON(t *testing.T) {
	out, err := json.Marshal(map[string]Date{"d": NewDate(2025, time.April, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-04-02"}`, string(out))

	var back struct{ D Date }
	require.NoError(t, json.Unmarshal([]byte(`{"D":"2025-04-02"}`), &back))
	assert.Equal(t, NewDate(2025, time.April, 2), back.D)
}

func TestParseMoonPhase(t *testing.T) {
	tests := []struct {
		name     string
		expected MoonPhase
		glyph    string
	}{
		{"New Moon", NewMoon, "🌑"},
		{"Waxing Crescent", WaxingCrescent, "🌒"},
		{"First Quarter", FirstQuarter, "🌓"},
		{"Waxing Gibbous", WaxingGibbous, "🌔"},
		{"Full Moon", FullMoon, "🌕"},
		{"Waning Gibbous", WaningGibbous, "🌖"},
		{"Third Quarter", ThirdQuarter, "🌗"},
		{"Waning Crescent", WaningCrescent, "🌘"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseMoonPhase(tt.name)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.glyph, p.Glyph())
		})
	}
}

func TestParseMoonPhase_UnknownFallsBackToNewMoon(t *testing.T) {
	assert.Equal(t, NewMoon, ParseMoonPhase("Gibbous Blob"))
	assert.Equal(t, NewMoon, ParseMoonPhase("full moon"))
	assert.Equal(t, NewMoon, ParseMoonPhase(""))

	p, ok := LookupMoonPhase("Gibbous Blob")
	assert.False(t, ok)
	assert.Equal(t, NewMoon, p)

	p, ok = LookupMoonPhase("Third Quarter")
	assert.True(t, ok)
	assert.Equal(t, ThirdQuarter, p)
}

func TestMoonPhase_OutOfRange(t *testing.T) {
	assert.Equal(t, "MoonPhase(42)", MoonPhase(42).Name())
	assert.Empty(t, MoonPhase(-1).Glyph())
	_, err := MoonPhase(8).MarshalText()
	assert.Error(t, err)
	assert.Len(t, AllMoonPhases(), 8)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 31, DaysIn(2025, time.March))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 30, DaysIn(2025, time.April))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}

func TestRepository_GetMonthLengths(t *testing.T) {
	repo := NewRepository(testData(t))

	tests := []struct {
		year     int
		month    time.Month
		expected int
	}{
		{2025, time.March, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2025, time.April, 30},
		{1999, time.January, 31},
	}

	for _, tt := range tests {
		t.Run(time.Date(tt.year, tt.month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"), func(t *testing.T) {
			assert.Len(t, repo.GetMonth(tt.year, tt.month), tt.expected)
		})
	}
}

func TestRepository_GetMonthSlots(t *testing.T) {
	repo := NewRepository(testData(t))

	month := repo.GetMonth(2025, time.March)
	require.Len(t, month, 31)
	for i, day := range month {
		switch i + 1 {
		case 1, 13, 14, 30:
			require.NotNil(t, day, "day %d", i+1)
			assert.Equal(t, NewDate(2025, time.March, i+1), day.Date)
		default:
			assert.Nil(t, day, "day %d", i+1)
		}
	}
	assert.Equal(t, FullMoon, month[13].Phase)

	empty := repo.GetMonth(1990, time.June)
	require.Len(t, empty, 30)
	for _, day := range empty {
		assert.Nil(t, day)
	}
}

func TestRepository_GetDay(t *testing.T) {
	repo := NewRepository(testData(t))

	day, ok := repo.GetDay(time.Date(2025, time.April, 12, 19, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, FullMoon, day.Phase)
	require.NotNil(t, day.Feast)
	assert.Equal(t, "Passover", day.Feast.Name)
	assert.True(t, repo.HasData(time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC)))

	day, ok = repo.GetDay(time.Date(2025, time.April, 13, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
	assert.Equal(t, Day{}, day)
	assert.False(t, repo.HasData(time.Date(2025, time.April, 13, 0, 0, 0, 0, time.UTC)))

	byDate, ok := repo.GetDate(NewDate(2025, time.March, 30))
	require.True(t, ok)
	assert.True(t, byDate.IsNewMoon)
	require.NotNil(t, byDate.NewMoonAngle)
	assert.Equal(t, 0.8, *byDate.NewMoonAngle)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository(testData(t))
	when := time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC)

	day, ok := repo.GetDay(when)
	require.True(t, ok)
	day.Feast.Name = "Changed"
	day.Feast.BibleRefs[0] = "Changed"
	*day.Feast.Description = "Changed"

	again, _ := repo.GetDay(when)
	assert.Equal(t, "Passover", again.Feast.Name)
	assert.Equal(t, []string{"Leviticus 23:5"}, again.Feast.BibleRefs)
	assert.Equal(t, "Between the evenings", *again.Feast.Description)

	month := repo.GetMonth(2025, time.March)
	month[0].IsSabbath = false
	first, _ := repo.GetDate(NewDate(2025, time.March, 1))
	assert.True(t, first.IsSabbath)
}

func TestRepository_GetScripture(t *testing.T) {
	repo := NewRepository(testData(t))

	text, ok := repo.GetScripture("Leviticus 23:5")
	assert.True(t, ok)
	assert.Contains(t, text, "passover")

	for _, ref := range []string{"leviticus 23:5", "Leviticus 23:5 ", "Leviticus", ""} {
		_, ok := repo.GetScripture(ref)
		assert.False(t, ok, "ref %q", ref)
	}
}

func TestRepository_DaysBetweenAndRange(t *testing.T) {
	repo := NewRepository(testData(t))

	days := repo.DaysBetween(NewDate(2025, time.March, 2), NewDate(2025, time.March, 30))
	require.Len(t, days, 3)
	assert.Equal(t, NewDate(2025, time.March, 13), days[0].Date)
	assert.Equal(t, NewDate(2025, time.March, 30), days[2].Date)

	assert.Empty(t, repo.DaysBetween(NewDate(2025, time.May, 1), NewDate(2025, time.April, 1)))
	assert.Len(t, repo.DaysBetween(NewDate(2000, time.January, 1), NewDate(2100, time.January, 1)), 5)

	first, last, ok := repo.Range()
	require.True(t, ok)
	assert.Equal(t, NewDate(2025, time.March, 1), first)
	assert.Equal(t, NewDate(2025, time.April, 12), last)
	assert.Equal(t, 5, repo.Len())
	assert.Equal(t, 1, repo.ScriptureCount())
	assert.True(t, repo.Integrity().Verified)
	assert.Equal(t, "2025-01-01T00:00:00", repo.Metadata().GeneratedAt)
}

func TestRepository_Empty(t *testing.T) {
	data, err := NewData(nil, nil, Metadata{}, Integrity{})
	require.NoError(t, err)
	repo := NewRepository(data)

	_, _, ok := repo.Range()
	assert.False(t, ok)
	assert.Equal(t, 0, repo.Len())
	assert.Len(t, repo.GetMonth(2025, time.January), 31)
}

func TestNewData_RejectsDuplicateDates(t *testing.T) {
	d := NewDate(2025, time.March, 1)
	_, err := NewData([]Day{{Date: d}, {Date: d, Phase: FullMoon}}, nil, Metadata{}, Integrity{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-03-01")
}

func TestNewData_CopiesInputs(t *testing.T) {
	refs := []string{"Exodus 12:2"}
	scriptures := map[string]string{"Exodus 12:2": "This month shall be unto you the beginning of months"}
	days := []Day{{Date: NewDate(2025, time.March, 30), Feast: &FeastDay{Name: "New Year", BibleRefs: refs}}}

	data, err := NewData(days, scriptures, Metadata{}, Integrity{})
	require.NoError(t, err)

	refs[0] = "mutated"
	scriptures["Exodus 12:2"] = "mutated"
	days[0].Feast.Name = "mutated"

	day, ok := data.Day(NewDate(2025, time.March, 30))
	require.True(t, ok)
	assert.Equal(t, "New Year", day.Feast.Name)
	assert.Equal(t, []string{"Exodus 12:2"}, day.Feast.BibleRefs)
	text, _ := data.Scripture("Exodus 12:2")
	assert.Equal(t, "This month shall be unto you the beginning of months", text)
}

func TestDay_JSON(t *testing.T) {
	day := Day{Date: NewDate(2025, time.April, 12), Phase: FullMoon, Angle: 179.1, Feast: &FeastDay{Name: "Passover"}}
	out, err := json.Marshal(day)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2025-04-12",
		"phase": "Full Moon",
		"angle": 179.1,
		"feast": {"name": "Passover", "description": null, "bibleRefs": null},
		"isSabbath": false,
		"isNewMoon": false,
		"isNewYear": false
	}`, string(out))
}

func TestHolder_Swap(t *testing.T) {
	h := NewHolder(nil)
	assert.False(t, h.Ready())
	assert.Nil(t, h.Current())

	first := NewRepository(testData(t))
	assert.Nil(t, h.Swap(first))
	assert.True(t, h.Ready())
	assert.Same(t, first, h.Current())

	second := NewRepository(testData(t))
	assert.Same(t, first, h.Swap(second))
	assert.Same(t, second, h.Current())

	// The old repository still answers for readers that kept it.
	_, ok := first.GetDate(NewDate(2025, time.April, 12))
	assert.True(t, ok)
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := NewHolder(NewRepository(testData(t)))
	when := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				repo := h.Current()
				day, ok := repo.GetDay(when)
				assert.True(t, ok)
				assert.Equal(t, FullMoon, day.Phase)
				assert.Len(t, repo.GetMonth(2025, time.March), 31)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		h.Swap(NewRepository(testData(t)))
	}
	wg.Wait()
}
