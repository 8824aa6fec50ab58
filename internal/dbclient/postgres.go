package dbclient

import (
	"strconv"
	"strings"

	"fieldlookup/internal/domain"

	_ "github.com/lib/pq"
)

// buildPostgresDSN renders a libpq key/value connection string. Values are
// single-quoted with backslash escapes so passwords may contain spaces.
func buildPostgresDSN(conn *domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + pqQuote(conn.Host),
		"port=" + strconv.Itoa(port),
		"user=" + pqQuote(conn.Username),
		"password=" + pqQuote(password),
		"dbname=" + pqQuote(conn.Database),
		"sslmode=" + pqQuote(sslMode),
		"connect_timeout=10",
		"application_name=" + pqQuote("fieldlookup"),
	}
	return strings.Join(parts, " ")
}

func pqQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
