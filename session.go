package sqlmapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oarkflow/sqlmapper/utils/sqlstr"
)

// Mode selects what Execute returns.
type Mode uint8

const (
	// ModeSelectOne returns the first row, or a nil Row when there is none.
	ModeSelectOne Mode = iota
	// ModeSelectAll returns every row, an empty slice when there are none.
	ModeSelectAll
	// ModeExecute returns the number of affected rows.
	ModeExecute
)

type Result struct {
	Row          Row
	Rows         []Row
	RowsAffected int64
}

// Session is one unit of work: a pooled connection and, with autocommit off,
// the transaction open on it. A Session is not safe for concurrent use.
type Session struct {
	ID   string
	pool *Pool
	conn *sql.Conn
	tx   *sql.Tx

	lastInsertID  int64
	lastInsertErr error
	released      bool
	// set when a commit or the following begin fails; the session has no
	// transaction left and must only be released
	broken error
}

func (s *Session) Pool() *Pool      { return s.pool }
func (s *Session) Dialect() Dialect { return s.pool.dialect }

func (s *Session) usable() error {
	if s.released {
		return ErrSessionReleased
	}
	if s.broken != nil {
		return fmt.Errorf("%w: %w", ErrSessionBroken, s.broken)
	}
	return nil
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// Execute rewrites query's :name placeholders for the session's driver and
// runs it.
func (s *Session) Execute(ctx context.Context, mode Mode, query string, params Params) (Result, error) {
	if err := s.usable(); err != nil {
		return Result{}, err
	}
	stmt, args, err := Rewrite(s.pool.dialect.Bind, query, params)
	if err != nil {
		return Result{}, err
	}
	if s.pool.echo {
		s.pool.logger.Debug().
			Str("session", s.ID).
			Str("template", sqlstr.Clean(query)).
			Str("sql", sqlstr.Clean(stmt)).
			Any("args", args).
			Msg("execute")
	}
	q := s.querier()
	return withHooks(ctx, &s.pool.hooks, stmt, args, func(ctx context.Context) (Result, error) {
		if mode == ModeExecute {
			res, err := q.ExecContext(ctx, stmt, args...)
			if err != nil {
				return Result{}, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return Result{}, err
			}
			s.lastInsertID, s.lastInsertErr = res.LastInsertId()
			return Result{RowsAffected: n}, nil
		}
		rows, err := q.QueryContext(ctx, stmt, args...)
		if err != nil {
			return Result{}, err
		}
		defer rows.Close()
		limit := 0
		if mode == ModeSelectOne {
			limit = 1
		}
		out, err := scanRows(rows, limit)
		if err != nil {
			return Result{}, err
		}
		if mode == ModeSelectOne {
			if len(out) == 0 {
				return Result{}, nil
			}
			return Result{Row: out[0]}, nil
		}
		return Result{Rows: out}, nil
	})
}

// SelectOne returns the first row of query, or nil when it yields none.
func (s *Session) SelectOne(ctx context.Context, query string, params Params) (Row, error) {
	res, err := s.Execute(ctx, ModeSelectOne, query, params)
	return res.Row, err
}

// SelectAll returns every row of query.
func (s *Session) SelectAll(ctx context.Context, query string, params Params) ([]Row, error) {
	res, err := s.Execute(ctx, ModeSelectAll, query, params)
	return res.Rows, err
}

func (s *Session) exec(ctx context.Context, query string, params Params) (int64, error) {
	res, err := s.Execute(ctx, ModeExecute, query, params)
	return res.RowsAffected, err
}

// Insert runs an INSERT and returns the affected row count.
func (s *Session) Insert(ctx context.Context, query string, params Params) (int64, error) {
	return s.exec(ctx, query, params)
}

// Update runs an UPDATE and returns the affected row count.
func (s *Session) Update(ctx context.Context, query string, params Params) (int64, error) {
	return s.exec(ctx, query, params)
}

// Delete runs a DELETE and returns the affected row count.
func (s *Session) Delete(ctx context.Context, query string, params Params) (int64, error) {
	return s.exec(ctx, query, params)
}

// LastInsertID returns the generated key of the most recent write, 0 before
// any write. Drivers without insert ids (pgx) report their error here.
func (s *Session) LastInsertID() (int64, error) {
	if s.released {
		return 0, ErrSessionReleased
	}
	return s.lastInsertID, s.lastInsertErr
}

// Commit makes the session's work durable and opens the next transaction.
// Under autocommit it does nothing. When either step fails the session is
// left broken: later statements fail with ErrSessionBroken instead of
// running outside a transaction.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		s.broken = err
		return err
	}
	if s.pool.echo {
		s.pool.logger.Debug().Str("session", s.ID).Msg("commit")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		s.broken = err
		return err
	}
	s.tx = tx
	return nil
}

// Release rolls back uncommitted work and returns the connection to the pool.
// Calling it again is a no-op.
func (s *Session) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, err)
	}
	if s.pool.echo {
		s.pool.logger.Debug().Str("session", s.ID).Msg("session released")
	}
	return errors.Join(errs...)
}
