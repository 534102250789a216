package postgres

import (
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oarkflow/sqlmapper"
)

// Open - "host=localhost user=postgres password=postgres dbname=app sslmode=disable"
func Open(dsn string, opts ...sqlmapper.Option) (*sqlmapper.Pool, error) {
	return sqlmapper.Open("pgx", dsn, opts...)
}

func MustOpen(dsn string, opts ...sqlmapper.Option) *sqlmapper.Pool {
	pool, err := Open(dsn, opts...)
	if err != nil {
		panic(err)
	}
	return pool
}
