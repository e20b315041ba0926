// Package driver provides pluggable database driver abstractions.
// Each database (PostgreSQL, MSSQL, SQLite) implements the Driver interface
// to open pooled connections for a named database alias.
package driver

import (
	"context"
	"database/sql"

	"github.com/johndauphine/pgext/internal/dbconfig"
)

// Vendor names reported by connections. Handlers that only apply to one
// database family compare against these.
const (
	VendorPostgreSQL = "postgresql"
	VendorMicrosoft  = "microsoft"
	VendorSQLite     = "sqlite"
)

// DriverDefaults contains default values for a database driver.
// Used by config.applyDefaults() to set sensible defaults for each database type.
type DriverDefaults struct {
	// Port is the default port (e.g., 5432 for PostgreSQL, 1433 for MSSQL).
	Port int

	// SSLMode is the default SSL mode for PostgreSQL-style connections.
	SSLMode string

	// Encrypt is the default encryption setting for MSSQL-style connections.
	Encrypt bool

	// MaxConns is the default pool size.
	MaxConns int
}

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Conn is one established database session belonging to a named alias.
type Conn interface {
	// Alias is the configuration name of the database ("default", "other", ...).
	Alias() string

	// Vendor identifies the database family, one of the Vendor* constants.
	Vendor() string

	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Release returns the session to its pool. Safe to call more than once.
	Release()
}

// ConnectFunc is called once for every new physical connection, before the
// connection is handed to any caller. A returned error discards the
// connection.
type ConnectFunc func(ctx context.Context, conn Conn) error

// Pool is an open connection pool for one alias.
type Pool interface {
	Alias() string
	Vendor() string

	// Acquire checks out a session. Callers must Release it.
	Acquire(ctx context.Context) (Conn, error)

	// DB exposes the pool through database/sql.
	DB() *sql.DB

	Close() error
}

// Driver represents a pluggable database driver.
//
// To add a new database:
// 1. Create a package under internal/driver/<dbname>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "postgres", "mssql").
	Name() string

	// Aliases returns alternative names for this driver.
	// For example, postgres has aliases ["postgresql", "pg", "postgis"].
	Aliases() []string

	// Vendor returns the vendor name reported by this driver's connections.
	Vendor() string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// Open creates a pool for alias. onConnect may be nil.
	Open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig, onConnect ConnectFunc) (Pool, error)
}
