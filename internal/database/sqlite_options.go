package database

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
	SynchronousExtra  SynchronousMode = "EXTRA"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

// LockingMode represents the available locking modes for SQLite
type LockingMode string

const (
	LockingNormal    LockingMode = "NORMAL"
	LockingExclusive LockingMode = "EXCLUSIVE"
)

// CacheMode represents the available cache modes for SQLite
type CacheMode string

const (
	CacheShared  CacheMode = "shared"
	CachePrivate CacheMode = "private"
)

// SQLiteOptions contains configuration options for SQLite connection
type SQLiteOptions struct {
	// Path to the SQLite database file
	Path string

	// URI parameters
	Mode      string    // ro, rw, rwc, memory
	Cache     CacheMode // shared, private
	Immutable bool      // immutable=1

	// Per-connection PRAGMAs
	Journal     JournalMode     // journal_mode
	ForeignKeys bool            // foreign_keys
	BusyTimeout int             // busy_timeout (milliseconds)
	CacheSize   int             // cache_size (pages, negative for KiB)
	Synchronous SynchronousMode // synchronous
	LockingMode LockingMode     // locking_mode
	AutoVacuum  string          // auto_vacuum: none, full, incremental
	QueryOnly   bool            // query_only

	// Transaction
	TxLock string // _txlock: immediate, deferred, exclusive

	// MaxOpenConns caps the pool; 0 leaves database/sql's default
	MaxOpenConns int
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Journal:     JournalWAL, // WAL lets HTTP readers run alongside a reload write
		ForeignKeys: true,
		BusyTimeout: 5000,
		CacheSize:   2000,
		Synchronous: SynchronousNormal,
		Cache:       CachePrivate,
		TxLock:      "immediate",
	}
}

// NewReadOnlyOptions opens an existing database without taking write locks
func NewReadOnlyOptions(path string) SQLiteOptions {
	opts := NewDefaultOptions(path)
	opts.Mode = "ro"
	opts.QueryOnly = true
	opts.Journal = ""
	opts.TxLock = ""
	return opts
}
