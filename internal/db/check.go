package db

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// extensionTypeNames are the codecs reported by Check when registered.
var extensionTypeNames = []string{"hstore", "_hstore", "citext", "_citext"}

// AliasStatus is the health of one configured database.
type AliasStatus struct {
	Alias     string
	Engine    string
	Vendor    string
	Connected bool
	LatencyMs int64
	Error     string
	// Types lists extension codecs registered on a checked-out connection.
	Types []string
}

// Check connects to the given aliases (all configured ones when empty) in
// parallel, each with its own timeout, and reports connectivity plus
// registered extension types. onDone, if set, is called as each alias
// finishes.
func (h *Handler) Check(ctx context.Context, aliases []string, timeout time.Duration, onDone func(AliasStatus)) []AliasStatus {
	if len(aliases) == 0 {
		aliases = h.cfg.Aliases()
	}
	results := make([]AliasStatus, len(aliases))

	var (
		wg     sync.WaitGroup
		doneMu sync.Mutex
	)
	for i, alias := range aliases {
		wg.Add(1)
		go func(i int, alias string) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			results[i] = h.checkAlias(checkCtx, alias)
			if onDone != nil {
				doneMu.Lock()
				onDone(results[i])
				doneMu.Unlock()
			}
		}(i, alias)
	}
	wg.Wait()
	return results
}

func (h *Handler) checkAlias(ctx context.Context, alias string) (st AliasStatus) {
	st.Alias = alias
	if dbCfg, err := h.cfg.Database(alias); err == nil {
		st.Engine = dbCfg.Engine
	}
	start := time.Now()
	defer func() { st.LatencyMs = time.Since(start).Milliseconds() }()

	p, err := h.Pool(ctx, alias)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Vendor = p.Vendor()

	if err := p.DB().PingContext(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Connected = true

	conn, err := p.Acquire(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	defer conn.Release()

	if tm, ok := conn.(interface{ TypeMap() *pgtype.Map }); ok {
		for _, name := range extensionTypeNames {
			if _, ok := tm.TypeMap().TypeForName(name); ok {
				st.Types = append(st.Types, name)
			}
		}
	}
	return st
}
