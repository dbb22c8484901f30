package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConnectionString_PathHandling(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "plain path",
			path:     "test.db",
			expected: "file:test.db",
		},
		{
			name:     "path with file prefix",
			path:     "file:test.db",
			expected: "file:test.db",
		},
		{
			name:     "memory database",
			path:     ":memory:",
			expected: "file::memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := SQLiteOptions{Path: tt.path}
			assert.Equal(t, tt.expected, opts.buildConnectionString())
		})
	}
}

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		opts     SQLiteOptions
		expected string
	}{
		{
			name: "default options",
			opts: NewDefaultOptions("test.db"),
			expected: "file:test.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29" +
				"&_pragma=foreign_keys%281%29&_pragma=cache_size%282000%29&_pragma=synchronous%28NORMAL%29" +
				"&_txlock=immediate&cache=private&mode=rwc",
		},
		{
			name: "read only options",
			opts: NewReadOnlyOptions("state.db"),
			expected: "file:state.db?_pragma=busy_timeout%285000%29" +
				"&_pragma=foreign_keys%281%29&_pragma=cache_size%282000%29&_pragma=synchronous%28NORMAL%29" +
				"&_pragma=query_only%281%29&cache=private&mode=ro",
		},
		{
			name: "negative cache size and locking",
			opts: SQLiteOptions{
				Path:        "locked.db",
				CacheSize:   -4000,
				LockingMode: LockingExclusive,
				AutoVacuum:  "incremental",
				Immutable:   true,
			},
			expected: "file:locked.db?_pragma=cache_size%28-4000%29&_pragma=locking_mode%28EXCLUSIVE%29" +
				"&_pragma=auto_vacuum%28incremental%29&immutable=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opts.buildConnectionString())
		})
	}
}

func TestPragmas_SkipsZeroValues(t *testing.T) {
	opts := SQLiteOptions{Path: "test.db", ForeignKeys: false, QueryOnly: false}
	assert.Empty(t, opts.pragmas())

	opts = SQLiteOptions{Path: "test.db", BusyTimeout: 100, Synchronous: SynchronousOff}
	assert.Equal(t, []pragma{{"busy_timeout", "100"}, {"synchronous", "OFF"}}, opts.pragmas())
}
