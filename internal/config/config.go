// Package config loads the YAML configuration: named databases, type
// handler switch and logging settings.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johndauphine/pgext/internal/dbconfig"
	"github.com/johndauphine/pgext/internal/driver"

	// Register drivers so engines resolve during validation.
	_ "github.com/johndauphine/pgext/internal/driver/mssql"
	_ "github.com/johndauphine/pgext/internal/driver/postgres"
	_ "github.com/johndauphine/pgext/internal/driver/sqlite"
)

// DefaultAlias is the database every configuration must define.
const DefaultAlias = "default"

// Config is the complete configuration.
type Config struct {
	Databases    map[string]*dbconfig.DatabaseConfig `yaml:"databases"`
	TypeHandlers TypeHandlersConfig                  `yaml:"type_handlers"`
	Logging      LoggingConfig                       `yaml:"logging"`
}

// TypeHandlersConfig controls registration of hstore/citext codecs.
type TypeHandlersConfig struct {
	Enabled *bool `yaml:"enabled"` // default: true
}

// IsEnabled reports whether type handlers should be installed.
func (c TypeHandlersConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // text or json (default: text)
}

// Load reads, expands and validates the configuration file at path.
// ${VAR} references are replaced from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses, defaults and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for _, db := range c.Databases {
		if db == nil {
			continue
		}
		d, err := driver.Get(db.Engine)
		if err != nil {
			// reported by validate
			continue
		}
		defaults := d.Defaults()
		if db.Port == 0 {
			db.Port = defaults.Port
		}
		if db.SSLMode == "" {
			db.SSLMode = defaults.SSLMode
		}
		if db.MaxConns == 0 {
			db.MaxConns = defaults.MaxConns
		}
		if db.Encrypt == nil && d.Vendor() == driver.VendorMicrosoft {
			enc := defaults.Encrypt
			db.Encrypt = &enc
		}
		if db.Host == "" && defaults.Port != 0 {
			db.Host = "localhost"
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if len(c.Databases) == 0 {
		return fmt.Errorf("no databases configured")
	}
	if _, ok := c.Databases[DefaultAlias]; !ok {
		return fmt.Errorf("databases: %q alias is required", DefaultAlias)
	}

	var problems []string
	for _, alias := range c.Aliases() {
		db := c.Databases[alias]
		if alias == dbconfig.NoDBAlias {
			problems = append(problems, fmt.Sprintf("%s: alias is reserved", alias))
			continue
		}
		if db == nil {
			problems = append(problems, fmt.Sprintf("%s: empty database settings", alias))
			continue
		}
		if _, err := driver.Get(db.Engine); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", alias, err))
		}
		if db.Name == "" {
			problems = append(problems, fmt.Sprintf("%s: name is required", alias))
		}
		if db.MaxConns < 0 {
			problems = append(problems, fmt.Sprintf("%s: max_conns must be positive", alias))
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: %q is not text or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Aliases returns the configured aliases, "default" first and the rest
// sorted.
func (c *Config) Aliases() []string {
	aliases := make([]string, 0, len(c.Databases))
	for a := range c.Databases {
		if a != DefaultAlias {
			aliases = append(aliases, a)
		}
	}
	sort.Strings(aliases)
	if _, ok := c.Databases[DefaultAlias]; ok {
		aliases = append([]string{DefaultAlias}, aliases...)
	}
	return aliases
}

// Database returns the settings for alias.
func (c *Config) Database(alias string) (*dbconfig.DatabaseConfig, error) {
	db, ok := c.Databases[alias]
	if !ok || db == nil {
		return nil, fmt.Errorf("database alias %q is not configured (configured: %s)", alias, strings.Join(c.Aliases(), ", "))
	}
	return db, nil
}
