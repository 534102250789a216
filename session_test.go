package sqlmapper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T, driverName string, opts ...Option) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPool(db, driverName, append([]Option{WithEcho(false)}, opts...)...), mock
}

func acquire(t *testing.T, p *Pool) *Session {
	t.Helper()
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })
	return s
}

func petRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("BIGINT", int64(0)),
		sqlmock.NewColumn("name").OfType("VARCHAR", ""),
		sqlmock.NewColumn("price").OfType("DECIMAL", []byte{}),
	)
}

func TestExecuteSelectOne(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	mock.ExpectQuery("select * from pets where id=?").
		WithArgs(1).
		WillReturnRows(petRows().AddRow([]byte("1"), []byte("rex"), []byte("9.99")).AddRow([]byte("2"), []byte("tom"), []byte("1.00")))

	row, err := s.SelectOne(context.Background(), "select * from pets where id=:id", Params{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "rex", row["name"])
	assert.Equal(t, "9.99", row["price"].(interface{ String() string }).String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteSelectNothing(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	mock.ExpectQuery("select * from pets where id=?").WithArgs(9).WillReturnRows(petRows())
	row, err := s.SelectOne(context.Background(), "select * from pets where id=:id", Params{"id": 9})
	require.NoError(t, err)
	assert.Nil(t, row)

	mock.ExpectQuery("select * from pets").WillReturnRows(petRows())
	rows, err := s.SelectAll(context.Background(), "select * from pets", nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteWrite(t *testing.T) {
	p, mock := newMockPool(t, "pgx")
	s := acquire(t, p)

	id, err := s.LastInsertID()
	require.NoError(t, err)
	assert.Zero(t, id)

	mock.ExpectExec("update t set a=$1 where id=$2").
		WithArgs("x", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := s.Update(context.Background(), "update t set a=:a where id=:id", Params{"a": "x", "id": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("insert into t (a) values ($1)").
		WithArgs("y").
		WillReturnResult(sqlmock.NewResult(42, 1))
	_, err = s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": "y"})
	require.NoError(t, err)
	id, err = s.LastInsertID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteErrors(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	_, err := s.SelectAll(context.Background(), "select * from t where a=:a", nil)
	assert.ErrorIs(t, err, ErrMissingParam)

	boom := errors.New("boom")
	mock.ExpectExec("delete from t").WillReturnError(boom)
	_, err = s.Delete(context.Background(), "delete from t", nil)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionalSession(t *testing.T) {
	p, mock := newMockPool(t, "mysql", WithAutocommit(false))

	mock.ExpectBegin()
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("insert into t (a) values (?)").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("insert into t (a) values (?)").WithArgs(2).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectRollback()

	_, err = s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": 1})
	require.NoError(t, err)
	require.NoError(t, s.Commit(context.Background()))
	_, err = s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": 2})
	require.NoError(t, err)

	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = s.SelectAll(context.Background(), "select 1", nil)
	assert.ErrorIs(t, err, ErrSessionReleased)
	assert.ErrorIs(t, s.Commit(context.Background()), ErrSessionReleased)
	_, err = s.LastInsertID()
	assert.ErrorIs(t, err, ErrSessionReleased)
}

func TestFailedCommitBreaksSession(t *testing.T) {
	p, mock := newMockPool(t, "mysql", WithAutocommit(false))
	mock.ExpectBegin()
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	refused := errors.New("deadlock found")
	mock.ExpectExec("insert into t (a) values (?)").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(refused)

	_, err = s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": 1})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Commit(context.Background()), refused)

	_, err = s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": 2})
	assert.ErrorIs(t, err, ErrSessionBroken)
	assert.ErrorIs(t, err, refused)
	assert.ErrorIs(t, s.Commit(context.Background()), ErrSessionBroken)

	require.NoError(t, s.Release())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedBeginAfterCommitBreaksSession(t *testing.T) {
	p, mock := newMockPool(t, "mysql", WithAutocommit(false))
	mock.ExpectBegin()
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	gone := errors.New("connection lost")
	mock.ExpectCommit()
	mock.ExpectBegin().WillReturnError(gone)

	assert.ErrorIs(t, s.Commit(context.Background()), gone)
	_, err = s.Delete(context.Background(), "delete from t", nil)
	assert.ErrorIs(t, err, ErrSessionBroken)

	require.NoError(t, s.Release())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitUnderAutocommit(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)
	require.NoError(t, s.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoReleasesOnError(t *testing.T) {
	p, mock := newMockPool(t, "mysql", WithAutocommit(false))
	mock.ExpectBegin()
	mock.ExpectRollback()

	var held *Session
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(ctx context.Context, s *Session) error {
		held = s
		fromCtx, err := SessionFrom(ctx)
		require.NoError(t, err)
		assert.Same(t, s, fromCtx)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = held.SelectAll(context.Background(), "select 1", nil)
	assert.ErrorIs(t, err, ErrSessionReleased)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoReleasesOnPanic(t *testing.T) {
	p, mock := newMockPool(t, "mysql", WithAutocommit(false))
	mock.ExpectBegin()
	mock.ExpectRollback()

	var held *Session
	assert.Panics(t, func() {
		_ = p.Do(context.Background(), func(ctx context.Context, s *Session) error {
			held = s
			panic("handler failed")
		})
	})
	_, err := held.LastInsertID()
	assert.ErrorIs(t, err, ErrSessionReleased)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	mock.ExpectQuery("select * from pets where id=?").
		WithArgs("3").
		WillReturnRows(petRows().AddRow(int64(3), "rex", []byte("1.50")))

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := SessionFrom(r.Context())
		require.NoError(t, err)
		row, err := s.SelectOne(r.Context(), "select * from pets where id=:id", Params{"id": r.URL.Query().Get("id")})
		require.NoError(t, err)
		_, _ = w.Write([]byte(row["name"].(string)))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets?id=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rex", rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFromEmptyContext(t *testing.T) {
	_, err := SessionFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

type recordingHook struct {
	before, after []string
	failed        []error
}

func (h *recordingHook) Before(ctx context.Context, query string, args ...any) (context.Context, error) {
	h.before = append(h.before, query)
	return ctx, nil
}

func (h *recordingHook) After(ctx context.Context, query string, args ...any) (context.Context, error) {
	h.after = append(h.after, query)
	return ctx, nil
}

func (h *recordingHook) OnError(ctx context.Context, err error, query string, args ...any) error {
	h.failed = append(h.failed, err)
	return nil
}

func TestErrorHookCannotReplaceError(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	var seen error
	p.UseOnError(func(ctx context.Context, err error, query string, args ...any) error {
		seen = err
		return errors.New("masked")
	})
	boom := errors.New("duplicate entry")
	mock.ExpectExec("insert into t (a) values (?)").WithArgs(1).WillReturnError(boom)

	_, err := s.Insert(context.Background(), "insert into t (a) values (:a)", Params{"a": 1})
	assert.Same(t, boom, err)
	assert.Same(t, boom, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHooks(t *testing.T) {
	hook := &recordingHook{}
	p, mock := newMockPool(t, "mysql", WithHooks(hook))
	s := acquire(t, p)

	mock.ExpectExec("delete from t where id=?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	boom := errors.New("boom")
	mock.ExpectExec("delete from t where id=?").WithArgs(2).WillReturnError(boom)

	_, err := s.Delete(context.Background(), "delete from t where id=:id", Params{"id": 1})
	require.NoError(t, err)
	_, err = s.Delete(context.Background(), "delete from t where id=:id", Params{"id": 2})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"delete from t where id=?", "delete from t where id=?"}, hook.before)
	assert.Equal(t, []string{"delete from t where id=?"}, hook.after)
	assert.Equal(t, []error{boom}, hook.failed)

	denied := errors.New("denied")
	p.UseBefore(func(ctx context.Context, query string, args ...any) (context.Context, error) {
		return ctx, denied
	})
	_, err = s.Delete(context.Background(), "delete from t where id=:id", Params{"id": 3})
	assert.ErrorIs(t, err, denied)
	require.NoError(t, mock.ExpectationsWereMet())
}
