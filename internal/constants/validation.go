// Package constants provides shared constants for the hebrew-calendar application
package constants

import (
	"fmt"
	"time"
)

// ValidDaysOfWeek maps day-of-week names to their time.Weekday
// Used for validating the configured first day of the week in month grids
var ValidDaysOfWeek = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// IsValidDayOfWeek checks if a given day string is a valid day of the week
func IsValidDayOfWeek(day string) bool {
	_, ok := ValidDaysOfWeek[day]
	return ok
}

// ParseDayOfWeek converts a day name into a time.Weekday
func ParseDayOfWeek(day string) (time.Weekday, error) {
	wd, ok := ValidDaysOfWeek[day]
	if !ok {
		return time.Sunday, fmt.Errorf("invalid day of week: %s", day)
	}
	return wd, nil
}
