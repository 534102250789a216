package sqlmapper

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	mock.ExpectExec("insert into pets (`color`, `name`) values (?, ?)").
		WithArgs("brown", "rex").
		WillReturnResult(sqlmock.NewResult(7, 1))

	n, err := s.Save(context.Background(), "pets", Row{"name": "rex", "color": "brown", "nick": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	id, err := s.LastInsertID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByKey(t *testing.T) {
	p, mock := newMockPool(t, "pgx")
	s := acquire(t, p)

	mock.ExpectExec(`update pets set "color" = $1, "name" = $2 where "id" = $3`).
		WithArgs("black", "rex", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := s.UpdateByKey(context.Background(), "pets", Params{"id": 3}, Row{"name": "rex", "color": "black", "nick": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.UpdateByKey(context.Background(), "pets", Params{"id": 3}, Row{"nick": nil})
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByKeyKeyWins(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)

	mock.ExpectExec("update pets set `id` = ?, `name` = ? where `id` = ?").
		WithArgs(1, "rex", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := s.UpdateByKey(context.Background(), "pets", Params{"id": 1}, Row{"id": 99, "name": "rex"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByKey(t *testing.T) {
	p, mock := newMockPool(t, "sqlserver")
	s := acquire(t, p)

	mock.ExpectExec("delete from pets where [kind] = @p1 and [name] = @p2").
		WithArgs("dog", "rex").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := s.DeleteByKey(context.Background(), "pets", Params{"name": "rex", "kind": "dog"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByKey(t *testing.T) {
	t.Run("limit", func(t *testing.T) {
		p, mock := newMockPool(t, "mysql")
		s := acquire(t, p)
		mock.ExpectQuery("select * from pets where `id` = ? limit 1").
			WithArgs(1).
			WillReturnRows(petRows().AddRow(int64(1), "rex", []byte("2.50")))
		row, err := s.GetByKey(context.Background(), "pets", Params{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, "rex", row["name"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("top", func(t *testing.T) {
		p, mock := newMockPool(t, "sqlserver")
		s := acquire(t, p)
		mock.ExpectQuery("select top 1 * from pets where [id] = @p1").
			WithArgs(1).
			WillReturnRows(petRows())
		row, err := s.GetByKey(context.Background(), "pets", Params{"id": 1})
		require.NoError(t, err)
		assert.Nil(t, row)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

type crudPet struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"`
	Nick  *string `db:"nick"`
	Color string  `db:"color" default:"brown"`
}

func TestRepository(t *testing.T) {
	p, mock := newMockPool(t, "mysql")
	s := acquire(t, p)
	repo := New[crudPet]("pets")
	assert.Equal(t, "pets", repo.Table())

	mock.ExpectExec("insert into pets (`color`, `id`, `name`) values (?, ?, ?)").
		WithArgs("white", 4, "tom").
		WillReturnResult(sqlmock.NewResult(4, 1))
	_, err := repo.Create(context.Background(), s, crudPet{ID: 4, Name: "tom", Color: "white"})
	require.NoError(t, err)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("BIGINT", int64(0)),
		sqlmock.NewColumn("name").OfType("VARCHAR", ""),
		sqlmock.NewColumn("nick").OfType("VARCHAR", ""),
		sqlmock.NewColumn("color").OfType("VARCHAR", ""),
	).AddRow(int64(4), "tom", nil, nil)
	mock.ExpectQuery("select * from pets where `id` = ? limit 1").WithArgs(4).WillReturnRows(rows)
	found, err := repo.Find(context.Background(), s, Params{"id": 4})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, crudPet{ID: 4, Name: "tom", Color: "brown"}, *found)

	nick := "tommy"
	mock.ExpectExec("update pets set `color` = ?, `name` = ?, `nick` = ? where `id` = ?").
		WithArgs("brown", "tom", "tommy", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = repo.Update(context.Background(), s, crudPet{ID: 4, Name: "tom", Nick: &nick, Color: "brown"})
	require.NoError(t, err)

	mock.ExpectExec("delete from pets where `id` = ?").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = repo.Delete(context.Background(), s, Params{"id": 4})
	require.NoError(t, err)

	mock.ExpectQuery("select * from pets where `id` = ? limit 1").WithArgs(5).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("id").OfType("BIGINT", int64(0))))
	found, err = repo.Find(context.Background(), s, Params{"id": 5})
	require.NoError(t, err)
	assert.Nil(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateNeedsKey(t *testing.T) {
	p, _ := newMockPool(t, "mysql")
	s := acquire(t, p)
	repo := New[map[string]any]("pets", "id")
	_, err := repo.Update(context.Background(), s, map[string]any{"name": "rex"})
	assert.ErrorIs(t, err, ErrPrecondition)
}
