// Package extension installs and removes PostgreSQL extensions and announces
// the change on the extension signals, so cached type information follows.
package extension

import (
	"context"
	"fmt"

	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/driver/postgres"
	"github.com/johndauphine/pgext/internal/logging"
	"github.com/johndauphine/pgext/internal/pgtypes"
	"github.com/johndauphine/pgext/internal/signals"
)

// Extensions with type handlers.
const (
	Hstore = pgtypes.Hstore
	Citext = pgtypes.Citext
)

var dialect = &postgres.Dialect{}

// Exists reports whether name is installed in conn's database.
func Exists(ctx context.Context, conn driver.Conn, name string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking extension %s: %w", name, err)
	}
	return exists, nil
}

// Create installs name unless it already exists, then sends
// signals.ExtensionCreated with conn. Connections of other vendors are
// skipped without error.
func Create(ctx context.Context, conn driver.Conn, name string) error {
	if conn.Vendor() != driver.VendorPostgreSQL {
		logging.Debug("Skipping CREATE EXTENSION %s on %s database %q", name, conn.Vendor(), conn.Alias())
		return nil
	}

	exists, err := Exists(ctx, conn, name)
	if err != nil {
		return err
	}
	if !exists {
		if err := conn.Exec(ctx, CreateSQL(name)); err != nil {
			return fmt.Errorf("creating extension %s on %q: %w", name, conn.Alias(), err)
		}
		logging.Info("Created extension %s on %q", name, conn.Alias())
	}

	return signals.ExtensionCreated.Send(ctx, signals.ExtensionEvent{Conn: conn, Name: name})
}

// Drop removes name if present, then sends signals.ExtensionRemoved.
func Drop(ctx context.Context, conn driver.Conn, name string) error {
	if conn.Vendor() != driver.VendorPostgreSQL {
		logging.Debug("Skipping DROP EXTENSION %s on %s database %q", name, conn.Vendor(), conn.Alias())
		return nil
	}

	if err := conn.Exec(ctx, DropSQL(name)); err != nil {
		return fmt.Errorf("dropping extension %s on %q: %w", name, conn.Alias(), err)
	}
	logging.Info("Dropped extension %s on %q", name, conn.Alias())

	return signals.ExtensionRemoved.Send(ctx, signals.ExtensionEvent{Conn: conn, Name: name})
}

// CreateSQL returns the statement that installs name.
func CreateSQL(name string) string {
	return fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", dialect.QuoteIdentifier(name))
}

// DropSQL returns the statement that removes name.
func DropSQL(name string) string {
	return fmt.Sprintf("DROP EXTENSION IF EXISTS %s", dialect.QuoteIdentifier(name))
}
