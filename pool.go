package sqlmapper

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oarkflow/log"
)

// Pool owns the connection pool and the settings every session inherits.
// Build one at startup and share it.
type Pool struct {
	db         *sql.DB
	driverName string
	dialect    Dialect
	pageSize   int
	autocommit bool
	echo       bool
	logger     *log.Logger
	hooks      hookSet
	queries    *Queries
}

type Option func(*Pool)

// WithPageSize sets the page size used by SelectPaged when the caller passes SizeDefault.
func WithPageSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithAutocommit turns autocommit on or off. With it off every session holds
// an open transaction that Commit completes.
func WithAutocommit(on bool) Option {
	return func(p *Pool) { p.autocommit = on }
}

// WithEcho turns statement tracing on or off.
func WithEcho(on bool) Option {
	return func(p *Pool) { p.echo = on }
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHooks registers values implementing BeforeHook, AfterHook or ErrorerHook.
func WithHooks(hooks ...any) Option {
	return func(p *Pool) { p.hooks.use(hooks...) }
}

// WithPoolLimits configures the underlying *sql.DB. Zero values leave the
// database/sql defaults in place.
func WithPoolLimits(maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) Option {
	return func(p *Pool) {
		if maxOpen > 0 {
			p.db.SetMaxOpenConns(maxOpen)
		}
		if maxIdle > 0 {
			p.db.SetMaxIdleConns(maxIdle)
		}
		if maxLifetime > 0 {
			p.db.SetConnMaxLifetime(maxLifetime)
		}
		if maxIdleTime > 0 {
			p.db.SetConnMaxIdleTime(maxIdleTime)
		}
	}
}

// NewPool wraps a pre-existing *sql.DB. The driverName selects the dialect.
func NewPool(db *sql.DB, driverName string, opts ...Option) *Pool {
	p := &Pool{
		db:         db,
		driverName: driverName,
		dialect:    DialectFor(driverName),
		pageSize:   10,
		autocommit: true,
		echo:       true,
		logger:     &log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open is the same as sql.Open, but returns a *Pool instead.
func Open(driverName, dsn string, opts ...Option) (*Pool, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return NewPool(db, driverName, opts...), nil
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, driverName, dsn string, opts ...Option) (*Pool, error) {
	p, err := Open(driverName, dsn, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.db.PingContext(ctx); err != nil {
		_ = p.db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pool) DB() *sql.DB         { return p.db }
func (p *Pool) DriverName() string  { return p.driverName }
func (p *Pool) Dialect() Dialect    { return p.dialect }
func (p *Pool) PageSize() int       { return p.pageSize }
func (p *Pool) Logger() *log.Logger { return p.logger }

// Close closes the underlying pool. Sessions still held fail on their next statement.
func (p *Pool) Close() error {
	return p.db.Close()
}

// Use registers hooks after construction.
func (p *Pool) Use(hooks ...any) {
	p.hooks.use(hooks...)
}

func (p *Pool) UseBefore(hooks ...Hook) {
	p.hooks.before = append(p.hooks.before, hooks...)
}

func (p *Pool) UseAfter(hooks ...Hook) {
	p.hooks.after = append(p.hooks.after, hooks...)
}

func (p *Pool) UseOnError(onError ...ErrorHook) {
	p.hooks.onError = append(p.hooks.onError, onError...)
}

// Acquire takes a connection from the pool and, with autocommit off, opens
// its first transaction. The caller must Release the session.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.NewString(), pool: p, conn: conn}
	if !p.autocommit {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		s.tx = tx
	}
	if p.echo {
		p.logger.Debug().Str("session", s.ID).Bool("autocommit", p.autocommit).Msg("session acquired")
	}
	return s, nil
}

// Do runs fn inside a unit of work. The session is released on every exit
// path; uncommitted work is rolled back.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return fn(ContextWithSession(ctx, s), s)
}

// Middleware gives every request its own session, reachable from handlers
// through SessionFrom(r.Context()).
func (p *Pool) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := p.Acquire(r.Context())
		if err != nil {
			p.logger.Error().Err(err).Str("path", r.URL.Path).Msg("acquire session")
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		defer s.Release()
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
	})
}

type sessionKey struct{}

// ContextWithSession stores s in ctx.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx by Do or Middleware.
func SessionFrom(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
