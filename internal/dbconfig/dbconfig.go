// Package dbconfig provides the per-alias database connection settings used
// by both the config and driver packages. This package exists to break the
// circular import between config and driver packages.
package dbconfig

// NoDBAlias is the alias given to connections opened against the server's
// maintenance database instead of a configured one. Extension type handlers
// are never registered on such connections.
const NoDBAlias = "__no_db__"

// DatabaseConfig holds the connection settings for one named database.
type DatabaseConfig struct {
	Engine   string `yaml:"engine"` // driver name or alias: "postgresql", "postgis", "mssql", "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"` // database name, or file path for sqlite
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`  // PostgreSQL: disable, require, verify-ca, verify-full
	MaxConns int    `yaml:"max_conns"` // pool size (default: driver default)
	Encrypt  *bool  `yaml:"encrypt"`   // MSSQL: enable TLS encryption (default: true)
	// ConnectTimeout in seconds, 0 means driver default
	ConnectTimeout int `yaml:"connect_timeout"`
}

// DSNOptions returns a map of options for building a DSN.
func (c *DatabaseConfig) DSNOptions() map[string]any {
	opts := make(map[string]any)
	if c.SSLMode != "" {
		opts["sslmode"] = c.SSLMode
	}
	if c.Encrypt != nil {
		opts["encrypt"] = *c.Encrypt
	}
	if c.ConnectTimeout > 0 {
		opts["connect_timeout"] = c.ConnectTimeout
	}
	return opts
}

// WithDatabase returns a copy of c pointing at another database on the same
// server.
func (c *DatabaseConfig) WithDatabase(name string) *DatabaseConfig {
	cp := *c
	cp.Name = name
	return &cp
}
