package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/logging"
)

// Pool manages a pool of PostgreSQL connections for one alias.
type Pool struct {
	pool  *pgxpool.Pool
	alias string

	dbOnce sync.Once
	db     *sql.DB
}

// Open creates a PostgreSQL connection pool. onConnect runs inside pgx's
// AfterConnect hook, so it sees every physical connection exactly once.
func Open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig, onConnect driver.ConnectFunc) (*Pool, error) {
	dialect := &Dialect{}
	dsn := dialect.BuildDSN(cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.DSNOptions())

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
		poolCfg.MinConns = int32(cfg.MaxConns / 4)
	}

	if onConnect != nil {
		poolCfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
			return onConnect(ctx, NewConn(alias, c, nil))
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.Debug("Connected to PostgreSQL %q: %s:%d/%s", alias, cfg.Host, cfg.Port, cfg.Name)

	return &Pool{pool: pool, alias: alias}, nil
}

// Alias returns the configuration name of the pool.
func (p *Pool) Alias() string { return p.alias }

// Vendor returns the vendor of the pool's connections.
func (p *Pool) Vendor() string { return driver.VendorPostgreSQL }

// Acquire checks out a pooled connection.
func (p *Pool) Acquire(ctx context.Context) (driver.Conn, error) {
	pc, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for %q: %w", p.alias, err)
	}
	return NewConn(p.alias, pc.Conn(), pc.Release), nil
}

// DB returns a database/sql view of the pool. Connections opened through it
// still pass through AfterConnect.
func (p *Pool) DB() *sql.DB {
	p.dbOnce.Do(func() {
		p.db = stdlib.OpenDBFromPool(p.pool)
	})
	return p.db
}

// Close closes all connections in the pool
func (p *Pool) Close() error {
	var err error
	if p.db != nil {
		err = p.db.Close()
	}
	p.pool.Close()
	return err
}
