// Package constants provides shared constants for the hebrew-calendar application
package constants

import "fmt"

// EventKind identifies a category of calendar entry that can be published
type EventKind string

const (
	// EventKindFeast is a day carrying a feast attachment
	EventKindFeast EventKind = "feast"
	// EventKindSabbath is a weekly Sabbath
	EventKindSabbath EventKind = "sabbath"
	// EventKindNewMoon is a sighted new moon (start of a month)
	EventKindNewMoon EventKind = "new_moon"
	// EventKindNewYear is the first day of the year
	EventKindNewYear EventKind = "new_year"
)

// IsValid checks if the event kind value is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindFeast, EventKindSabbath, EventKindNewMoon, EventKindNewYear:
		return true
	}
	return false
}

// String returns the string representation of the event kind
func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind parses a string into an EventKind
// Returns an error if the value is invalid
func ParseEventKind(s string) (EventKind, error) {
	kind := EventKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid event kind: %s (must be one of feast, sabbath, new_moon, new_year)", s)
	}
	return kind, nil
}

// GetAllEventKinds returns all valid event kinds in publishing order
func GetAllEventKinds() []EventKind {
	return []EventKind{EventKindNewYear, EventKindNewMoon, EventKindFeast, EventKindSabbath}
}
