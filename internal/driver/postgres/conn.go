package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/johndauphine/pgext/internal/driver"
)

// Conn is a PostgreSQL session tagged with the alias it was opened for.
// Besides driver.Conn it exposes Query and TypeMap, which is what the
// extension type handlers need.
type Conn struct {
	alias   string
	pg      *pgx.Conn
	release func()
	once    sync.Once
}

// NewConn wraps c. release may be nil for connections that are not pooled.
func NewConn(alias string, c *pgx.Conn, release func()) *Conn {
	return &Conn{alias: alias, pg: c, release: release}
}

func (c *Conn) Alias() string  { return c.alias }
func (c *Conn) Vendor() string { return driver.VendorPostgreSQL }

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.pg.Exec(ctx, sql, args...)
	return err
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) driver.Row {
	return c.pg.QueryRow(ctx, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.pg.Query(ctx, sql, args...)
}

// TypeMap returns the connection's OID to codec map. Registrations are
// local to this connection.
func (c *Conn) TypeMap() *pgtype.Map {
	return c.pg.TypeMap()
}

func (c *Conn) Release() {
	c.once.Do(func() {
		if c.release != nil {
			c.release()
		}
	})
}
