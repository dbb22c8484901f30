package database

import (
	"net/url"
	"strconv"
	"strings"
)

// pragma is one _pragma=name(value) DSN parameter
type pragma struct {
	name  string
	value string
}

// pragmas lists the PRAGMAs the driver applies to every new connection.
// Zero-valued options are skipped so SQLite keeps its own default.
func (opts *SQLiteOptions) pragmas() []pragma {
	var out []pragma
	add := func(name, value string) {
		if value != "" {
			out = append(out, pragma{name, value})
		}
	}

	// busy_timeout goes first so the remaining PRAGMAs wait on a locked database
	if opts.BusyTimeout > 0 {
		add("busy_timeout", strconv.Itoa(opts.BusyTimeout))
	}
	add("journal_mode", string(opts.Journal))
	if opts.ForeignKeys {
		add("foreign_keys", "1")
	}
	if opts.CacheSize != 0 {
		add("cache_size", strconv.Itoa(opts.CacheSize))
	}
	add("synchronous", string(opts.Synchronous))
	add("locking_mode", string(opts.LockingMode))
	add("auto_vacuum", opts.AutoVacuum)
	if opts.QueryOnly {
		add("query_only", "1")
	}
	return out
}

// buildConnectionString generates a modernc.org/sqlite DSN from options
func (opts *SQLiteOptions) buildConnectionString() string {
	var parts []string

	for _, p := range opts.pragmas() {
		parts = append(parts, "_pragma="+url.QueryEscape(p.name+"("+p.value+")"))
	}
	if opts.TxLock != "" {
		parts = append(parts, "_txlock="+url.QueryEscape(opts.TxLock))
	}
	if opts.Cache != "" {
		parts = append(parts, "cache="+url.QueryEscape(string(opts.Cache)))
	}
	if opts.Immutable {
		parts = append(parts, "immutable=1")
	}
	if opts.Mode != "" {
		parts = append(parts, "mode="+url.QueryEscape(opts.Mode))
	}

	connStr := opts.Path
	if !strings.HasPrefix(connStr, "file:") {
		connStr = "file:" + connStr
	}
	if len(parts) > 0 {
		connStr += "?" + strings.Join(parts, "&")
	}

	return connStr
}
