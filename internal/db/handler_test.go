package db

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/johndauphine/pgext/internal/config"
	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/pgtypes"
	"github.com/johndauphine/pgext/internal/signals"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Databases: map[string]*dbconfig.DatabaseConfig{
			"default": {Engine: "sqlite", Name: filepath.Join(dir, "default.db"), MaxConns: 1},
			"other":   {Engine: "sqlite", Name: filepath.Join(dir, "other.db"), MaxConns: 1},
		},
	}
}

func TestPoolFiresConnectionCreated(t *testing.T) {
	ctx := context.Background()
	var seen []string
	signals.ConnectionCreated.Connect("db_test.recorder", func(_ context.Context, ev signals.ConnectionEvent) error {
		seen = append(seen, ev.Conn.Alias()+"/"+ev.Conn.Vendor())
		return nil
	})
	defer signals.ConnectionCreated.Disconnect("db_test.recorder")

	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	p1, err := h.Pool(ctx, "default")
	if err != nil {
		t.Fatalf("Pool(default): %v", err)
	}
	p2, err := h.Pool(ctx, "default")
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("expected one pool per alias")
	}
	if _, err := h.Pool(ctx, "other"); err != nil {
		t.Fatalf("Pool(other): %v", err)
	}

	want := []string{"default/sqlite", "other/sqlite"}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("connection_created events = %v, want %v", seen, want)
	}
}

func TestTypeHandlersIgnoreOtherVendors(t *testing.T) {
	ctx := context.Background()
	app := pgtypes.NewApp(nil)
	app.Ready()
	defer app.Unload()

	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	conn, err := h.Acquire(ctx, "default")
	if err != nil {
		t.Fatalf("Acquire with type handlers installed: %v", err)
	}
	defer conn.Release()

	if conn.Vendor() != driver.VendorSQLite {
		t.Errorf("vendor = %q, want sqlite", conn.Vendor())
	}
}

func TestReceiverErrorFailsConnection(t *testing.T) {
	signals.ConnectionCreated.Connect("db_test.failing", func(context.Context, signals.ConnectionEvent) error {
		return context.DeadlineExceeded
	})
	defer signals.ConnectionCreated.Disconnect("db_test.failing")

	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	_, err := h.Pool(context.Background(), "default")
	if err == nil {
		t.Fatal("expected receiver error to fail the pool")
	}
	if !strings.Contains(err.Error(), `opening database "default"`) {
		t.Errorf("error should name the alias: %v", err)
	}
}

func TestUnknownAlias(t *testing.T) {
	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	if _, err := h.Acquire(context.Background(), "replica"); err == nil {
		t.Fatal("expected error for unconfigured alias")
	}
}

func TestNoDBRequiresPostgres(t *testing.T) {
	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	_, err := h.NoDB(context.Background(), "default")
	if err == nil || !strings.Contains(err.Error(), "only supported for PostgreSQL") {
		t.Fatalf("expected PostgreSQL-only error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Databases["broken"] = &dbconfig.DatabaseConfig{Engine: "sqlite"}

	h := NewHandler(cfg)
	defer h.Close()

	var done int
	results := h.Check(context.Background(), nil, 5*time.Second, func(AliasStatus) { done++ })

	if len(results) != 3 || done != 3 {
		t.Fatalf("expected 3 results and callbacks, got %d and %d", len(results), done)
	}
	if results[0].Alias != "default" {
		t.Errorf("default alias should be checked first, got %q", results[0].Alias)
	}

	byAlias := make(map[string]AliasStatus)
	for _, r := range results {
		byAlias[r.Alias] = r
	}
	for _, alias := range []string{"default", "other"} {
		r := byAlias[alias]
		if !r.Connected || r.Vendor != driver.VendorSQLite || r.Error != "" {
			t.Errorf("%s: %+v", alias, r)
		}
		if len(r.Types) != 0 {
			t.Errorf("%s: sqlite should report no extension types, got %v", alias, r.Types)
		}
	}
	if b := byAlias["broken"]; b.Connected || b.Error == "" {
		t.Errorf("broken alias should fail: %+v", b)
	}
}

func TestCloseAllowsReopen(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(sqliteConfig(t))

	if _, err := h.Pool(ctx, "default"); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := h.Pool(ctx, "default"); err != nil {
		t.Fatalf("Pool after Close: %v", err)
	}
	h.Close()
}

func TestCheckSelectedAliases(t *testing.T) {
	h := NewHandler(sqliteConfig(t))
	defer h.Close()

	results := h.Check(context.Background(), []string{"other", "replica"}, 5*time.Second, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Alias != "other" || !results[0].Connected {
		t.Errorf("other: %+v", results[0])
	}
	if results[1].Alias != "replica" || results[1].Connected || !strings.Contains(results[1].Error, "not configured") {
		t.Errorf("replica should report an unconfigured alias: %+v", results[1])
	}
}

// silentListener accepts TCP connections and never answers, so connection
// attempts against it hang until their context expires.
func silentListener(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	var held []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			c, err := ln.Accept()
			if err != nil {
				for _, c := range held {
					c.Close()
				}
				return
			}
			held = append(held, c)
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
	})
	return ln.Addr().(*net.TCPAddr).Port
}

func TestCheckSlowAliasDoesNotDelayOthers(t *testing.T) {
	port := silentListener(t)
	cfg := sqliteConfig(t)
	for _, alias := range []string{"stuck1", "stuck2", "stuck3"} {
		cfg.Databases[alias] = &dbconfig.DatabaseConfig{
			Engine: "postgres", Host: "127.0.0.1", Port: port,
			Name: "django", User: "postgres", SSLMode: "disable",
		}
	}

	h := NewHandler(cfg)
	defer h.Close()

	timeout := time.Second
	results := h.Check(context.Background(), []string{"stuck1", "stuck2", "default", "stuck3"}, timeout, nil)

	for _, r := range results {
		if r.Alias == "default" {
			if !r.Connected {
				t.Fatalf("default should connect: %+v", r)
			}
			if r.LatencyMs >= timeout.Milliseconds()/2 {
				t.Errorf("default waited on unreachable aliases: latency %dms", r.LatencyMs)
			}
			continue
		}
		if r.Connected || r.Error == "" {
			t.Errorf("%s should time out: %+v", r.Alias, r)
		}
	}
}
