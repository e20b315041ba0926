// Package postgres provides the PostgreSQL driver implementation on pgx.
// It registers itself with the driver registry on import.
package postgres

import (
	"context"

	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for PostgreSQL databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "postgres"
}

// Aliases returns alternative names for this driver. PostGIS databases are
// ordinary PostgreSQL connections as far as type handling is concerned.
func (d *Driver) Aliases() []string {
	return []string{"postgresql", "pg", "postgis"}
}

// Vendor returns the vendor reported by PostgreSQL connections.
func (d *Driver) Vendor() string {
	return driver.VendorPostgreSQL
}

// Defaults returns the default configuration values for PostgreSQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:     5432,
		SSLMode:  "prefer",
		MaxConns: 4,
	}
}

// Open creates a pgx pool for alias.
func (d *Driver) Open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig, onConnect driver.ConnectFunc) (driver.Pool, error) {
	return Open(ctx, alias, cfg, onConnect)
}
