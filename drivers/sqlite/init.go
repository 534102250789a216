package sqlite

import (
	_ "modernc.org/sqlite"

	"github.com/oarkflow/sqlmapper"
)

// Open - sqlite.db
func Open(dsn string, opts ...sqlmapper.Option) (*sqlmapper.Pool, error) {
	return sqlmapper.Open("sqlite", dsn, opts...)
}

func MustOpen(dsn string, opts ...sqlmapper.Option) *sqlmapper.Pool {
	pool, err := Open(dsn, opts...)
	if err != nil {
		panic(err)
	}
	return pool
}
