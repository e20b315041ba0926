// Package mssql provides the Microsoft SQL Server driver implementation.
// SQL Server connections never carry PostgreSQL extension types; the driver
// exists so mixed-vendor configurations open cleanly.
package mssql

import (
	"context"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for Microsoft SQL Server.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mssql"
}

// Aliases returns alternative names for the driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlserver", "sql-server"}
}

// Vendor returns the vendor reported by SQL Server connections.
func (d *Driver) Vendor() string {
	return driver.VendorMicrosoft
}

// Defaults returns the default configuration values for SQL Server.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:     1433,
		Encrypt:  true,
		MaxConns: 4,
	}
}

// Open creates a database/sql pool for alias.
func (d *Driver) Open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig, onConnect driver.ConnectFunc) (driver.Pool, error) {
	dsn := (&Dialect{}).BuildDSN(cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.DSNOptions())
	return driver.OpenSQL(ctx, "sqlserver", dsn, alias, driver.VendorMicrosoft, cfg.MaxConns, onConnect)
}

// Dialect builds SQL Server connection strings.
type Dialect struct{}

// BuildDSN builds a sqlserver:// URL.
func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	params := url.Values{}
	params.Set("database", database)
	encrypt := true
	if v, ok := opts["encrypt"].(bool); ok {
		encrypt = v
	}
	params.Set("encrypt", fmt.Sprint(encrypt))
	if v, ok := opts["connect_timeout"].(int); ok && v > 0 {
		params.Set("dial timeout", fmt.Sprint(v))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, params.Encode())
}
