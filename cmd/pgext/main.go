package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/pgext/internal/config"
	"github.com/johndauphine/pgext/internal/db"
	"github.com/johndauphine/pgext/internal/driver"
	"github.com/johndauphine/pgext/internal/extension"
	"github.com/johndauphine/pgext/internal/logging"
	"github.com/johndauphine/pgext/internal/pgtypes"
	"github.com/johndauphine/pgext/internal/progress"
	"github.com/johndauphine/pgext/internal/util"
	"github.com/johndauphine/pgext/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	databaseFlag := &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   config.DefaultAlias,
		Usage:   "Database alias to use",
	}

	return &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Connect to every database and report registered extension types",
				Action: runCheck,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "databases",
						Usage: "Comma-separated aliases to check (default: all)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
						Usage: "Per-database timeout",
					},
				},
			},
			{
				Name:      "create-extension",
				Usage:     "Install an extension and register its types",
				ArgsUsage: "NAME",
				Action:    runCreateExtension,
				Flags:     []cli.Flag{databaseFlag},
			},
			{
				Name:      "drop-extension",
				Usage:     "Remove an extension and forget its cached types",
				ArgsUsage: "NAME",
				Action:    runDropExtension,
				Flags:     []cli.Flag{databaseFlag},
			},
			{
				Name:   "server-version",
				Usage:  "Show the server version via the maintenance database",
				Action: runServerVersion,
				Flags:  []cli.Flag{databaseFlag},
			},
		},
	}
}

// logSettings returns the effective log level and format. Flags win over
// the config file.
func logSettings(c *cli.Context, cfg *config.Config) (string, string) {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	return level, format
}

// env is the per-command runtime: config, connection handler and the
// installed type handler app.
type env struct {
	cfg *config.Config
	dbs *db.Handler
	app *pgtypes.App
}

func (e *env) Close() {
	if e.app != nil {
		e.app.Unload()
	}
	if err := e.dbs.Close(); err != nil {
		logging.Warn("closing databases: %v", err)
	}
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	levelName, format := logSettings(c, cfg)
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)
	logging.SetFormat(format)
	logging.SetOutput(c.App.ErrWriter)

	e := &env{cfg: cfg, dbs: db.NewHandler(cfg)}
	if cfg.TypeHandlers.IsEnabled() {
		e.app = pgtypes.NewApp(nil)
		e.app.Ready()
	}
	return e, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCheck(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	aliases := util.SplitList(c.String("databases"))
	if len(aliases) == 0 {
		aliases = e.cfg.Aliases()
	}

	tracker := progress.New(c.App.ErrWriter, len(aliases), "checking databases")
	results := e.dbs.Check(ctx, aliases, c.Duration("timeout"), func(db.AliasStatus) {
		tracker.Add()
	})
	tracker.Finish("databases")

	printStatus(c.App.Writer, results)

	for _, r := range results {
		if !r.Connected {
			return cli.Exit("one or more databases are unreachable", 1)
		}
	}
	return nil
}

func printStatus(w io.Writer, results []db.AliasStatus) {
	for _, r := range results {
		if !r.Connected {
			fmt.Fprintf(w, "%-12s %-10s FAILED  %s\n", r.Alias, r.Engine, r.Error)
			continue
		}
		types := "-"
		if len(r.Types) > 0 {
			types = strings.Join(r.Types, ",")
		}
		fmt.Fprintf(w, "%-12s %-10s ok %4dms types=%s\n", r.Alias, r.Vendor, r.LatencyMs, types)
	}
}

func extensionName(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s NAME", version.Name, c.Command.Name), 2)
	}
	return c.Args().First(), nil
}

func runCreateExtension(c *cli.Context) error {
	return applyExtension(c, extension.Create, "created")
}

func runDropExtension(c *cli.Context) error {
	return applyExtension(c, extension.Drop, "dropped")
}

func applyExtension(c *cli.Context, op func(context.Context, driver.Conn, string) error, verb string) error {
	name, err := extensionName(c)
	if err != nil {
		return err
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	alias := c.String("database")
	conn, err := e.dbs.Acquire(ctx, alias)
	if err != nil {
		return err
	}
	defer conn.Release()

	if conn.Vendor() != driver.VendorPostgreSQL {
		fmt.Fprintf(c.App.Writer, "%s: skipped, %s databases have no extensions\n", alias, conn.Vendor())
		return nil
	}
	if err := op(ctx, conn, name); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: extension %s %s\n", alias, name, verb)
	return nil
}

func runServerVersion(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	alias := c.String("database")
	pool, err := e.dbs.NoDB(ctx, alias)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var v string
	if err := conn.QueryRow(ctx, "SHOW server_version").Scan(&v); err != nil {
		return fmt.Errorf("querying server version: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s: PostgreSQL %s\n", alias, v)
	return nil
}
