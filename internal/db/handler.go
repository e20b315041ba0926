// Package db opens and owns one connection pool per configured database
// alias. Every new physical connection is announced on
// signals.ConnectionCreated before it is used.
package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/johndauphine/pgext/internal/config"
	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/logging"
	"github.com/johndauphine/pgext/internal/signals"
	"golang.org/x/sync/singleflight"
)

// MaintenanceDatabase is the database NoDB connects to.
const MaintenanceDatabase = "postgres"

// Handler maps aliases to lazily opened pools.
type Handler struct {
	cfg *config.Config

	mu    sync.Mutex
	pools map[string]driver.Pool

	// opening dedupes concurrent first opens of one alias. Different
	// aliases open in parallel.
	opening singleflight.Group
}

// NewHandler creates a handler for the configured databases. No connection
// is made until a pool is requested.
func NewHandler(cfg *config.Config) *Handler {
	return &Handler{
		cfg:   cfg,
		pools: make(map[string]driver.Pool),
	}
}

// Pool returns the pool for alias, opening it on first use.
func (h *Handler) Pool(ctx context.Context, alias string) (driver.Pool, error) {
	if p, ok := h.cached(alias); ok {
		return p, nil
	}

	dbCfg, err := h.cfg.Database(alias)
	if err != nil {
		return nil, err
	}
	v, err, _ := h.opening.Do(alias, func() (any, error) {
		if p, ok := h.cached(alias); ok {
			return p, nil
		}
		p, err := open(ctx, alias, dbCfg)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.pools[alias] = p
		h.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(driver.Pool), nil
}

func (h *Handler) cached(alias string) (driver.Pool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pools[alias]
	return p, ok
}

// Acquire checks out a connection of alias. Callers must Release it.
func (h *Handler) Acquire(ctx context.Context, alias string) (driver.Conn, error) {
	p, err := h.Pool(ctx, alias)
	if err != nil {
		return nil, err
	}
	return p.Acquire(ctx)
}

// NoDB opens a separate pool to the maintenance database of alias's server,
// under the alias dbconfig.NoDBAlias. It is used for server-level work that
// must not depend on the configured database existing. The caller closes
// the returned pool.
func (h *Handler) NoDB(ctx context.Context, alias string) (driver.Pool, error) {
	dbCfg, err := h.cfg.Database(alias)
	if err != nil {
		return nil, err
	}
	d, err := driver.Get(dbCfg.Engine)
	if err != nil {
		return nil, err
	}
	if d.Vendor() != driver.VendorPostgreSQL {
		return nil, fmt.Errorf("database %q: maintenance connections are only supported for PostgreSQL", alias)
	}
	return open(ctx, dbconfig.NoDBAlias, dbCfg.WithDatabase(MaintenanceDatabase))
}

// Close closes every open pool.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for alias, p := range h.pools {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %q: %w", alias, err))
		}
		delete(h.pools, alias)
	}
	return errors.Join(errs...)
}

func open(ctx context.Context, alias string, cfg *dbconfig.DatabaseConfig) (driver.Pool, error) {
	d, err := driver.Get(cfg.Engine)
	if err != nil {
		return nil, err
	}

	p, err := d.Open(ctx, alias, cfg, connectionCreated)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", alias, err)
	}
	logging.Debug("Opened %s pool for %q", d.Name(), alias)
	return p, nil
}

func connectionCreated(ctx context.Context, conn driver.Conn) error {
	return signals.ConnectionCreated.Send(ctx, signals.ConnectionEvent{Conn: conn})
}
