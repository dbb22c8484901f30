package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDayOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		day      string
		expected bool
	}{
		{"Valid Monday", "Monday", true},
		{"Valid Tuesday", "Tuesday", true},
		{"Valid Wednesday", "Wednesday", true},
		{"Valid Thursday", "Thursday", true},
		{"Valid Friday", "Friday", true},
		{"Valid Saturday", "Saturday", true},
		{"Valid Sunday", "Sunday", true},
		{"Invalid lowercase", "monday", false},
		{"Invalid empty", "", false},
		{"Invalid random", "NotADay", false},
		{"Invalid number", "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidDayOfWeek(tt.day))
		})
	}
}

func TestValidDaysOfWeek(t *testing.T) {
	assert.Len(t, ValidDaysOfWeek, 7)
	for name, wd := range ValidDaysOfWeek {
		assert.Equal(t, name, wd.String())
	}
}

func TestParseDayOfWeek(t *testing.T) {
	wd, err := ParseDayOfWeek("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	wd, err = ParseDayOfWeek("Saturday")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, wd)

	_, err = ParseDayOfWeek("Shabbat")
	assert.Error(t, err)
}
