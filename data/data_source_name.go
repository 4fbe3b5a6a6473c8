package data

import (
	"net/url"
	"strings"
)

// Schemes understood by the datastore and the translation caches.
const (
	PostgresScheme = "postgres"
	MemScheme      = "mem://"
	RedisScheme    = "redis://"
	ValkeyScheme   = "valkey://"
)

// A DSN for conveniently handling a URI connection string.
type DSN string

func (d DSN) String() string {
	return string(d)
}

// ToArray splits a comma separated list of connection strings.
func (d DSN) ToArray() []DSN {
	var connectionDSList []DSN
	for _, connectionURI := range strings.Split(string(d), ",") {
		dataSourceURI := DSN(strings.TrimSpace(connectionURI))
		if len(dataSourceURI) > 0 {
			connectionDSList = append(connectionDSList, dataSourceURI)
		}
	}

	return connectionDSList
}

func (d DSN) IsPostgres() bool {
	u, err := url.Parse(string(d))
	if err == nil && (u.Scheme == PostgresScheme || u.Scheme == "postgresql") {
		return true
	}

	return strings.Contains(string(d), "dbname=")
}

func (d DSN) IsRedis() bool {
	return strings.HasPrefix(string(d), RedisScheme) || strings.HasPrefix(string(d), "rediss://")
}

func (d DSN) IsValkey() bool {
	return strings.HasPrefix(string(d), ValkeyScheme)
}

// IsMem reports an in process store, the empty DSN included.
func (d DSN) IsMem() bool {
	return d == "" || strings.HasPrefix(string(d), MemScheme)
}

func (d DSN) IsCache() bool {
	return d.IsMem() || d.IsRedis() || d.IsValkey()
}

func (d DSN) ToURI() (*url.URL, error) {
	return url.Parse(string(d))
}
