package pgtypes

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/johndauphine/pgext/internal/driver"
)

// fakeRows serves (oid, typarray) pairs.
type fakeRows struct {
	rows [][2]uint32
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != 2 {
		return errors.New("expected two destinations")
	}
	*dest[0].(*uint32) = row[0]
	*dest[1].(*uint32) = row[1]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.rows[r.pos-1]
	return []any{row[0], row[1]}, nil
}

// fakeConn is a PostgreSQL-looking connection answering pg_type lookups
// from a table keyed by extension name.
type fakeConn struct {
	alias   string
	vendor  string
	typeMap *pgtype.Map

	mu       sync.Mutex
	types    map[string][][2]uint32
	queryErr error
	queries  map[string]int
}

func newFakeConn(alias string) *fakeConn {
	return &fakeConn{
		alias:   alias,
		vendor:  driver.VendorPostgreSQL,
		typeMap: pgtype.NewMap(),
		types:   make(map[string][][2]uint32),
		queries: make(map[string]int),
	}
}

func (c *fakeConn) install(ext string, oid, arrayOID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[ext] = append(c.types[ext], [2]uint32{oid, arrayOID})
}

func (c *fakeConn) uninstall(ext string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.types, ext)
}

func (c *fakeConn) queryCount(ext string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries[ext]
}

func (c *fakeConn) Alias() string  { return c.alias }
func (c *fakeConn) Vendor() string { return c.vendor }
func (c *fakeConn) Release()       {}

func (c *fakeConn) Exec(context.Context, string, ...any) error { return nil }

func (c *fakeConn) QueryRow(context.Context, string, ...any) driver.Row { return nil }

func (c *fakeConn) TypeMap() *pgtype.Map { return c.typeMap }

func (c *fakeConn) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ext := Citext
	if strings.Contains(sql, "'hstore'") {
		ext = Hstore
	}
	c.queries[ext]++
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	rows := append([][2]uint32(nil), c.types[ext]...)
	return &fakeRows{rows: rows}, nil
}

// plainConn is a connection without a PostgreSQL session.
type plainConn struct {
	alias  string
	vendor string
}

func (c *plainConn) Alias() string                                      { return c.alias }
func (c *plainConn) Vendor() string                                     { return c.vendor }
func (c *plainConn) Release()                                           {}
func (c *plainConn) Exec(context.Context, string, ...any) error         { return nil }
func (c *plainConn) QueryRow(context.Context, string, ...any) driver.Row { return nil }

// blockingConn holds every pg_type query until release is closed or the
// query's context is done.
type blockingConn struct {
	*fakeConn
	started     chan struct{}
	release     chan struct{}
	startedOnce sync.Once
}

func newBlockingConn(alias string) *blockingConn {
	return &blockingConn{
		fakeConn: newFakeConn(alias),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (c *blockingConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.startedOnce.Do(func() { close(c.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.release:
		return c.fakeConn.Query(ctx, sql, args...)
	}
}
