package storage

import (
	"net/url"
	"strings"
)

// Kind names a storage backend.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindMongo    Kind = "mongo"
)

// DetectKind picks the backend for a database setting: PostgreSQL URLs and key/value DSNs and
// MongoDB URLs select those servers, anything else is treated as a SQLite file path.
func DetectKind(database string) Kind {
	switch {
	case strings.HasPrefix(database, "postgres://") || strings.HasPrefix(database, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(database, "mongodb://") || strings.HasPrefix(database, "mongodb+srv://"):
		return KindMongo
	case isKeyValueDSN(database):
		return KindPostgres
	default:
		return KindSQLite
	}
}

// isKeyValueDSN matches libpq key/value strings such as "host=localhost dbname=habitpal".
func isKeyValueDSN(database string) bool {
	fields := strings.Fields(database)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.Contains(f, "=") {
			return false
		}
	}
	return strings.Contains(database, "host=") || strings.Contains(database, "dbname=")
}

// HasEmbeddedCredentials reports whether a server URL or DSN carries a password.
func HasEmbeddedCredentials(database string) bool {
	if isKeyValueDSN(database) {
		for _, f := range strings.Fields(database) {
			if strings.HasPrefix(f, "password=") {
				return true
			}
		}
		return false
	}
	u, err := url.Parse(database)
	if err != nil || u.User == nil {
		return false
	}
	_, set := u.User.Password()
	return set
}

// Redact hides the password of a server URL or DSN for display.
func Redact(database string) string {
	if isKeyValueDSN(database) {
		fields := strings.Fields(database)
		for i, f := range fields {
			if strings.HasPrefix(f, "password=") {
				fields[i] = "password=xxxxx"
			}
		}
		return strings.Join(fields, " ")
	}
	u, err := url.Parse(database)
	if err != nil || u.User == nil {
		return database
	}
	if _, set := u.User.Password(); !set {
		return database
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
