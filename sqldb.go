package sqlmapper

import (
	"context"
	"database/sql"
)

// querier is what a session runs statements on: its connection when
// autocommit is on, its open transaction otherwise.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ querier = (*sql.Conn)(nil)
	_ querier = (*sql.Tx)(nil)
)
