package mysql

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/oarkflow/sqlmapper"
)

// Open - "user:password@tcp(localhost:3306)/db"
func Open(dsn string, opts ...sqlmapper.Option) (*sqlmapper.Pool, error) {
	return sqlmapper.Open("mysql", dsn, opts...)
}

func MustOpen(dsn string, opts ...sqlmapper.Option) *sqlmapper.Pool {
	pool, err := Open(dsn, opts...)
	if err != nil {
		panic(err)
	}
	return pool
}
