// Package pgtypes registers codecs for the hstore and citext extension types
// on PostgreSQL connections as they are created, so values of those types
// scan into and encode from native Go values.
//
// The OIDs of extension types differ between databases, so they are looked
// up in pg_type once per connection alias and cached. Creating or dropping
// one of the extensions clears its cached OIDs.
package pgtypes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/singleflight"
)

// Extension names with type handlers.
const (
	Hstore = "hstore"
	Citext = "citext"
)

var oidQueries = map[string]string{
	Hstore: "SELECT t.oid, typarray " +
		"FROM pg_type t " +
		"JOIN pg_namespace ns ON typnamespace = ns.oid " +
		"WHERE typname = 'hstore'",
	Citext: "SELECT oid, typarray FROM pg_type WHERE typname = 'citext'",
}

// Session is the part of an established PostgreSQL connection needed to look
// up and register extension types. *pgx.Conn satisfies it.
type Session interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	TypeMap() *pgtype.Map
}

// OIDs holds the type and array type OIDs of one extension type. An entry
// exists per matching pg_type row; OIDs[i] pairs with ArrayOIDs[i].
type OIDs struct {
	OIDs      []uint32
	ArrayOIDs []uint32
}

// Empty reports whether the extension type was not found.
func (o OIDs) Empty() bool {
	return len(o.OIDs) == 0
}

type cacheKey struct {
	ext   string
	alias string
}

// Cache memoizes extension type OIDs per connection alias. It never evicts;
// entries go away only through ClearHstore and ClearCitext.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]OIDs
	gen     map[string]uint64
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]OIDs),
		gen:     make(map[string]uint64),
	}
}

// HstoreOIDs returns the hstore and hstore[] OIDs for alias, querying s on
// a miss.
func (c *Cache) HstoreOIDs(ctx context.Context, alias string, s Session) (OIDs, error) {
	return c.lookup(ctx, Hstore, alias, s)
}

// CitextOIDs returns the citext and citext[] OIDs for alias, querying s on
// a miss.
func (c *Cache) CitextOIDs(ctx context.Context, alias string, s Session) (OIDs, error) {
	return c.lookup(ctx, Citext, alias, s)
}

// ClearHstore drops the cached hstore OIDs of every alias.
func (c *Cache) ClearHstore() { c.clear(Hstore) }

// ClearCitext drops the cached citext OIDs of every alias.
func (c *Cache) ClearCitext() { c.clear(Citext) }

func (c *Cache) clear(ext string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[ext]++
	for k := range c.entries {
		if k.ext == ext {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) lookup(ctx context.Context, ext, alias string, s Session) (OIDs, error) {
	key := cacheKey{ext: ext, alias: alias}

	for {
		c.mu.Lock()
		if o, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return o, nil
		}
		gen := c.gen[ext]
		c.mu.Unlock()

		// Concurrent misses for one alias share a query run on the first
		// caller's session. The generation is part of the key so callers
		// arriving after a clear never join a stale flight.
		flight := fmt.Sprintf("%s/%d/%s", ext, gen, alias)
		v, err, _ := c.group.Do(flight, func() (any, error) {
			o, err := queryOIDs(ctx, s, ext)
			if err != nil {
				if ctx.Err() != nil {
					return OIDs{}, &abandonedError{err: err}
				}
				return OIDs{}, err
			}
			c.mu.Lock()
			if c.gen[ext] == gen {
				c.entries[key] = o
			}
			c.mu.Unlock()
			return o, nil
		})
		if err != nil {
			// The caller running the shared query went away. Callers that
			// are still live look up again on their own session.
			var abandoned *abandonedError
			if errors.As(err, &abandoned) && ctx.Err() == nil {
				continue
			}
			return OIDs{}, err
		}
		return v.(OIDs), nil
	}
}

// abandonedError wraps a lookup failure caused by the context of the caller
// that ran the query.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

func queryOIDs(ctx context.Context, s Session, ext string) (OIDs, error) {
	rows, err := s.Query(ctx, oidQueries[ext])
	if err != nil {
		return OIDs{}, fmt.Errorf("querying %s oids: %w", ext, err)
	}
	defer rows.Close()

	var o OIDs
	for rows.Next() {
		var oid, arrayOID uint32
		if err := rows.Scan(&oid, &arrayOID); err != nil {
			return OIDs{}, fmt.Errorf("scanning %s oids: %w", ext, err)
		}
		o.OIDs = append(o.OIDs, oid)
		o.ArrayOIDs = append(o.ArrayOIDs, arrayOID)
	}
	if err := rows.Err(); err != nil {
		return OIDs{}, fmt.Errorf("reading %s oids: %w", ext, err)
	}
	return o, nil
}
