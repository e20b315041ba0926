package driver

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// SQLPool is a Pool backed by database/sql, used by drivers whose Go
// driver has no per-connection hook. ConnectionCreated semantics are
// approximated by calling onConnect once, after the first successful ping.
type SQLPool struct {
	db     *sql.DB
	alias  string
	vendor string
}

// OpenSQL opens and pings a database/sql pool, then runs onConnect on a
// freshly checked-out session.
func OpenSQL(ctx context.Context, driverName, dsn, alias, vendor string, maxConns int, onConnect ConnectFunc) (*SQLPool, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(max(maxConns/4, 1))
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	p := &SQLPool{db: db, alias: alias, vendor: vendor}

	if onConnect != nil {
		conn, err := p.Acquire(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		err = onConnect(ctx, conn)
		conn.Release()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connection setup for %q: %w", alias, err)
		}
	}

	return p, nil
}

// Alias returns the configuration name of the pool.
func (p *SQLPool) Alias() string { return p.alias }

// Vendor returns the vendor of the pool's connections.
func (p *SQLPool) Vendor() string { return p.vendor }

// DB returns the underlying database connection
func (p *SQLPool) DB() *sql.DB { return p.db }

// Close closes all connections in the pool
func (p *SQLPool) Close() error { return p.db.Close() }

// Acquire checks out a dedicated session.
func (p *SQLPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for %q: %w", p.alias, err)
	}
	return &sqlConn{conn: c, alias: p.alias, vendor: p.vendor}, nil
}

type sqlConn struct {
	conn   *sql.Conn
	alias  string
	vendor string
	once   sync.Once
}

func (c *sqlConn) Alias() string  { return c.alias }
func (c *sqlConn) Vendor() string { return c.vendor }

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.conn.ExecContext(ctx, query, args...)
	return err
}

func (c *sqlConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *sqlConn) Release() {
	c.once.Do(func() { c.conn.Close() })
}
