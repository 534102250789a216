package connection

import (
	"fmt"

	"github.com/oarkflow/sqlmapper"
	"github.com/oarkflow/sqlmapper/drivers/mssql"
	"github.com/oarkflow/sqlmapper/drivers/mysql"
	"github.com/oarkflow/sqlmapper/drivers/postgres"
	"github.com/oarkflow/sqlmapper/drivers/sqlite"
)

// FromConfig opens the pool described by cfg with cfg's pool settings
// applied, followed by any extra options.
func FromConfig(cfg sqlmapper.Config, extra ...sqlmapper.Option) (*sqlmapper.Pool, error) {
	dsn := cfg.ToString()
	opts := append(cfg.Options(), extra...)
	var pool *sqlmapper.Pool
	var err error
	switch cfg.Driver {
	case "postgresql", "postgres", "psql", "pgx":
		pool, err = postgres.Open(dsn, opts...)
	case "mysql", "mariadb":
		pool, err = mysql.Open(dsn, opts...)
	case "sqlite", "sqlite3":
		pool, err = sqlite.Open(dsn, opts...)
	case "mssql", "sqlserver", "sql-server", "ms-sql":
		pool, err = mssql.Open(dsn, opts...)
	default:
		return nil, fmt.Errorf("driver not supported %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return pool, nil
}
