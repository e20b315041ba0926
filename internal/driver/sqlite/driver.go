// Package sqlite provides the SQLite driver implementation on the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQLite files.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Aliases returns alternative names for the driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlite3"}
}

// Vendor returns the vendor reported by SQLite connections.
func (d *Driver) Vendor() string {
	return driver.VendorSQLite
}

// Defaults returns the default configuration values for SQLite.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{MaxConns: 1}
}

// Open opens the database file named by cfg.Name. Host, port and
// credentials are ignored.
func (d *Driver) Open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig, onConnect driver.ConnectFunc) (driver.Pool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("sqlite database %q: name (file path) is required", alias)
	}
	return driver.OpenSQL(ctx, "sqlite", cfg.Name, alias, driver.VendorSQLite, cfg.MaxConns, onConnect)
}
