package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKind_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		kind     EventKind
		expected bool
	}{
		{
			name:     "feast is valid",
			kind:     EventKindFeast,
			expected: true,
		},
		{
			name:     "sabbath is valid",
			kind:     EventKindSabbath,
			expected: true,
		},
		{
			name:     "new_moon is valid",
			kind:     EventKindNewMoon,
			expected: true,
		},
		{
			name:     "new_year is valid",
			kind:     EventKindNewYear,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			kind:     EventKind(""),
			expected: false,
		},
		{
			name:     "uppercase is invalid",
			kind:     EventKind("FEAST"),
			expected: false,
		},
		{
			name:     "display name is invalid",
			kind:     EventKind("New Moon"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.IsValid())
		})
	}
}

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    EventKind
		expectError bool
	}{
		{"parse feast", "feast", EventKindFeast, false},
		{"parse sabbath", "sabbath", EventKindSabbath, false},
		{"parse new_moon", "new_moon", EventKindNewMoon, false},
		{"parse new_year", "new_year", EventKindNewYear, false},
		{"reject empty", "", "", true},
		{"reject hyphenated", "new-moon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseEventKind(tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid event kind")
				assert.Equal(t, EventKind(""), result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetAllEventKinds(t *testing.T) {
	kinds := GetAllEventKinds()
	require.Len(t, kinds, 4)
	for _, k := range kinds {
		assert.True(t, k.IsValid(), "kind %s should be valid", k)
		assert.Equal(t, string(k), k.String())
	}
}
