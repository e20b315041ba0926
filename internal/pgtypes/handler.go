package pgtypes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/logging"
)

// Handler registers extension type codecs on connections.
type Handler struct {
	cache *Cache
}

// NewHandler creates a handler backed by cache. A nil cache gets a fresh one.
func NewHandler(cache *Cache) *Handler {
	if cache == nil {
		cache = NewCache()
	}
	return &Handler{cache: cache}
}

// Cache returns the handler's OID cache.
func (h *Handler) Cache() *Cache {
	return h.cache
}

// RegisterTypeHandlers registers hstore and citext codecs on conn's type
// map. Connections of other vendors and maintenance connections opened
// under dbconfig.NoDBAlias are left alone. An extension that is not
// installed is skipped, so connections to databases without it still work
// (and can be used to install it).
func (h *Handler) RegisterTypeHandlers(ctx context.Context, conn driver.Conn) error {
	if conn.Vendor() != driver.VendorPostgreSQL || conn.Alias() == dbconfig.NoDBAlias {
		return nil
	}

	s, ok := conn.(Session)
	if !ok {
		return fmt.Errorf("connection %q (%T) does not expose a PostgreSQL session", conn.Alias(), conn)
	}
	alias := conn.Alias()

	hstore, err := h.cache.HstoreOIDs(ctx, alias, s)
	if err != nil {
		return err
	}
	if hstore.Empty() {
		logging.Debug("hstore is not installed on %q, skipping type registration", alias)
	} else {
		registerHstore(s.TypeMap(), hstore)
	}

	citext, err := h.cache.CitextOIDs(ctx, alias, s)
	if err != nil {
		return err
	}
	if citext.Empty() {
		logging.Debug("citext is not installed on %q, skipping type registration", alias)
	} else {
		registerCitext(s.TypeMap(), citext)
	}

	return nil
}

// ExtensionCreated clears the cached OIDs of a newly created extension and
// registers its codecs on conn, the connection that created it. Later
// connections pick the types up through RegisterTypeHandlers.
func (h *Handler) ExtensionCreated(ctx context.Context, conn driver.Conn, name string) error {
	if !h.clear(name) {
		return nil
	}
	return h.RegisterTypeHandlers(ctx, conn)
}

// ExtensionRemoved clears the cached OIDs of a dropped extension. Codecs
// already registered on open connections stay; their OIDs no longer occur.
func (h *Handler) ExtensionRemoved(ctx context.Context, conn driver.Conn, name string) error {
	h.clear(name)
	return nil
}

func (h *Handler) clear(name string) bool {
	switch name {
	case Hstore:
		h.cache.ClearHstore()
	case Citext:
		h.cache.ClearCitext()
	default:
		logging.Debug("no type handlers for extension %s, ignoring", name)
		return false
	}
	logging.Debug("cleared cached %s oids", name)
	return true
}

func registerHstore(m *pgtype.Map, o OIDs) {
	for i, oid := range o.OIDs {
		elem := &pgtype.Type{Name: "hstore", OID: oid, Codec: &pgtype.HstoreCodec{}}
		m.RegisterType(elem)
		if i < len(o.ArrayOIDs) && o.ArrayOIDs[i] != 0 {
			m.RegisterType(&pgtype.Type{Name: "_hstore", OID: o.ArrayOIDs[i], Codec: &pgtype.ArrayCodec{ElementType: elem}})
		}
	}
}

// citext is case-insensitive text; values travel as plain strings.
func registerCitext(m *pgtype.Map, o OIDs) {
	for i, oid := range o.OIDs {
		elem := &pgtype.Type{Name: "citext", OID: oid, Codec: &pgtype.TextCodec{}}
		m.RegisterType(elem)
		if i < len(o.ArrayOIDs) && o.ArrayOIDs[i] != 0 {
			m.RegisterType(&pgtype.Type{Name: "_citext", OID: o.ArrayOIDs[i], Codec: &pgtype.ArrayCodec{ElementType: elem}})
		}
	}
}
