// Package sqldb implements storage.Repo over database/sql. The SQLite and PostgreSQL stores
// share it and differ only in their Dialect.
package sqldb

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported relational backends.
type Dialect struct {
	Name string
	// Dollar rebinds "?" placeholders to "$1", "$2", ...
	Dollar bool
	// Lock is appended to row reads that precede a write in the same transaction.
	Lock string
}

var (
	SQLite   = Dialect{Name: "sqlite"}
	Postgres = Dialect{Name: "postgres", Dollar: true, Lock: " FOR UPDATE"}
)

// Rebind rewrites the "?" placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
