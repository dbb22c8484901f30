package viewhelpers

import (
	"fmt"
	"time"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
)

// CalendarDay represents a single day cell in the calendar view.
type CalendarDay struct {
	Date           calendar.Date `json:"date"`
	DayOfMonth     int           `json:"dayOfMonth"`
	IsCurrentMonth bool          `json:"isCurrentMonth"` // Is this day within the primary month being displayed?
	Day            *calendar.Day `json:"day"`            // Dataset entry for this day (nil if none)
}

// CalculateCalendarRange returns the first and last dates of a view that shows
// full weeks, starting on weekStart, around the given month.
func CalculateCalendarRange(year int, month time.Month, weekStart time.Weekday) (startDate, endDate calendar.Date) {
	first := calendar.NewDate(year, month, 1)
	last := calendar.NewDate(year, month, calendar.DaysIn(year, month))

	// Days back from the first of the month to the start of its week
	lead := (int(first.Time().Weekday()) - int(weekStart) + 7) % 7
	startDate = first.AddDays(-lead)

	weekEnd := (weekStart + 6) % 7
	trail := (int(weekEnd) - int(last.Time().Weekday()) + 7) % 7
	endDate = last.AddDays(trail)

	return startDate, endDate
}

// StructureMonth organizes the month's days into week rows for display.
// Padding days from neighbouring months carry their data too.
func StructureMonth(repo *calendar.Repository, year int, month time.Month, weekStart time.Weekday) (monthName string, weeks [][]CalendarDay) {
	monthName = fmt.Sprintf("%s %d", month.String(), year)
	startDate, endDate := CalculateCalendarRange(year, month, weekStart)

	days := make(map[calendar.Date]calendar.Day)
	if repo != nil {
		for _, d := range repo.DaysBetween(startDate, endDate) {
			days[d.Date] = d
		}
	}

	var currentWeek []CalendarDay
	for current := startDate; !current.After(endDate); current = current.AddDays(1) {
		cell := CalendarDay{
			Date:           current,
			DayOfMonth:     current.Day,
			IsCurrentMonth: current.Month == month && current.Year == year,
		}
		if d, ok := days[current]; ok {
			cell.Day = &d
		}
		currentWeek = append(currentWeek, cell)

		if len(currentWeek) == 7 {
			weeks = append(weeks, currentWeek)
			currentWeek = nil
		}
	}

	return monthName, weeks
}
