package viewhelpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
)

// Helper to create a calendar.Date from a YYYY-MM-DD string
func date(t *testing.T, dateStr string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(dateStr)
	require.NoError(t, err)
	return d
}

func TestCalculateCalendarRange(t *testing.T) {
	testCases := []struct {
		name          string
		year          int
		month         time.Month
		weekStart     time.Weekday
		expectedStart string
		expectedEnd   string
	}{
		{"Regular Month (April 2025)", 2025, time.April, time.Monday, "2025-03-31", "2025-05-04"},
		{"Month starting on Sunday (Oct 2023)", 2023, time.October, time.Monday, "2023-09-25", "2023-11-05"},
		{"Month ending on Sunday (Dec 2023)", 2023, time.December, time.Monday, "2023-11-27", "2023-12-31"},
		{"February Non-Leap Year (Feb 2025)", 2025, time.February, time.Monday, "2025-01-27", "2025-03-02"},
		{"February Leap Year (Feb 2024)", 2024, time.February, time.Monday, "2024-01-29", "2024-03-03"},
		{"Month starting on Monday (Jan 2024)", 2024, time.January, time.Monday, "2024-01-01", "2024-02-04"},
		{"Sunday first week (April 2025)", 2025, time.April, time.Sunday, "2025-03-30", "2025-05-03"},
		{"Sunday first week (Sep 2024)", 2024, time.September, time.Sunday, "2024-09-01", "2024-10-05"},
		{"Saturday first week (March 2025)", 2025, time.March, time.Saturday, "2025-03-01", "2025-04-04"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			startDate, endDate := CalculateCalendarRange(tc.year, tc.month, tc.weekStart)

			assert.Equal(t, date(t, tc.expectedStart), startDate)
			assert.Equal(t, date(t, tc.expectedEnd), endDate)
			assert.Equal(t, tc.weekStart, startDate.Time().Weekday(), "Start date should open the week")
			assert.Equal(t, (tc.weekStart+6)%7, endDate.Time().Weekday(), "End date should close the week")
		})
	}
}

func newRepository(t *testing.T, days ...calendar.Day) *calendar.Repository {
	t.Helper()
	data, err := calendar.NewData(days, map[string]string{}, calendar.Metadata{}, calendar.Integrity{})
	require.NoError(t, err)
	return calendar.NewRepository(data)
}

func TestStructureMonth(t *testing.T) {
	repo := newRepository(t,
		calendar.Day{Date: date(t, "2025-03-31"), Phase: calendar.NewMoon, IsNewMoon: true}, // Padding day
		calendar.Day{Date: date(t, "2025-04-01"), Phase: calendar.WaxingCrescent},
		calendar.Day{Date: date(t, "2025-04-12"), Phase: calendar.FullMoon, IsSabbath: true,
			Feast: &calendar.FeastDay{Name: "Passover", BibleRefs: []string{}}},
		calendar.Day{Date: date(t, "2025-05-02"), Phase: calendar.WaxingCrescent}, // Padding day
	)

	monthName, weeks := StructureMonth(repo, 2025, time.April, time.Monday)

	assert.Equal(t, "April 2025", monthName, "Month name mismatch")
	require.Len(t, weeks, 5, "Should be 5 full weeks") // 31/3-6/4, 7/4-13/4, 14/4-20/4, 21/4-27/4, 28/4-4/5
	for i, week := range weeks {
		assert.Len(t, week, 7, "Week %d should have 7 days", i+1)
	}

	// Week 1 (Mar 31 - Apr 6)
	assert.Equal(t, 31, weeks[0][0].DayOfMonth)
	assert.False(t, weeks[0][0].IsCurrentMonth)
	require.NotNil(t, weeks[0][0].Day)
	assert.True(t, weeks[0][0].Day.IsNewMoon)
	assert.Equal(t, 1, weeks[0][1].DayOfMonth)
	assert.True(t, weeks[0][1].IsCurrentMonth)
	require.NotNil(t, weeks[0][1].Day)
	assert.Equal(t, calendar.WaxingCrescent, weeks[0][1].Day.Phase)
	assert.Nil(t, weeks[0][6].Day, "No data for Apr 6")

	// Week 2 (Apr 7 - Apr 13), Saturday Apr 12
	require.NotNil(t, weeks[1][5].Day)
	assert.Equal(t, "Passover", weeks[1][5].Day.Feast.Name)

	// Week 5 (Apr 28 - May 4)
	assert.Equal(t, 2, weeks[4][4].DayOfMonth)
	assert.False(t, weeks[4][4].IsCurrentMonth)
	require.NotNil(t, weeks[4][4].Day)
	assert.Nil(t, weeks[4][6].Day)
}

func TestStructureMonth_SundayStart(t *testing.T) {
	_, weeks := StructureMonth(newRepository(t), 2025, time.April, time.Sunday)
	require.Len(t, weeks, 5)
	assert.Equal(t, date(t, "2025-03-30"), weeks[0][0].Date)
	assert.Equal(t, date(t, "2025-05-03"), weeks[4][6].Date)
}

func TestStructureMonth_NoRepository(t *testing.T) {
	monthName, weeks := StructureMonth(nil, 2024, time.February, time.Monday)
	assert.Equal(t, "February 2024", monthName)
	require.Len(t, weeks, 5)

	inMonth := 0
	for _, week := range weeks {
		for _, cell := range week {
			assert.Nil(t, cell.Day)
			if cell.IsCurrentMonth {
				inMonth++
			}
		}
	}
	assert.Equal(t, 29, inMonth)
}
