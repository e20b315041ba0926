package postgres

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Dialect builds PostgreSQL connection strings and quotes identifiers.
type Dialect struct{}

// QuoteIdentifier double-quotes name, doubling embedded quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BuildDSN builds a postgres:// URL. User and password are query-escaped and
// the database name path-escaped so reserved characters survive parsing.
func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	userInfo := url.QueryEscape(user)
	if password != "" {
		userInfo += ":" + url.QueryEscape(password)
	}

	params := url.Values{}
	sslMode := "prefer"
	if v, ok := opts["sslmode"].(string); ok && v != "" {
		sslMode = v
	}
	params.Set("sslmode", sslMode)

	keys := make([]string, 0, len(opts))
	for k := range opts {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, fmt.Sprint(opts[k]))
	}

	return fmt.Sprintf("postgres://%s@%s:%d/%s?%s",
		userInfo, host, port, url.PathEscape(database), params.Encode())
}
