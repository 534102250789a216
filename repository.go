package sqlmapper

import (
	"context"
)

// Repository binds a record type to its table so CRUD calls take and return
// T instead of rows.
type Repository[T any] struct {
	table      string
	primaryKey []string
}

func New[T any](table string, primaryKey ...string) *Repository[T] {
	if len(primaryKey) == 0 {
		primaryKey = []string{"id"}
	}
	return &Repository[T]{table: table, primaryKey: primaryKey}
}

func (r *Repository[T]) Table() string { return r.table }

// Create inserts record and returns the affected row count.
func (r *Repository[T]) Create(ctx context.Context, s *Session, record T) (int64, error) {
	row, err := RowOf(record)
	if err != nil {
		return 0, err
	}
	return s.Save(ctx, r.table, row)
}

// Find returns the record matching key, or nil.
func (r *Repository[T]) Find(ctx context.Context, s *Session, key Params) (*T, error) {
	row, err := s.GetByKey(ctx, r.table, key)
	if err != nil || row == nil {
		return nil, err
	}
	record, err := Materialize[T](row)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update writes every non-nil column of record to the row with the same
// primary key.
func (r *Repository[T]) Update(ctx context.Context, s *Session, record T) (int64, error) {
	row, err := RowOf(record)
	if err != nil {
		return 0, err
	}
	key, data, err := splitKey(row, r.primaryKey)
	if err != nil {
		return 0, err
	}
	return s.UpdateByKey(ctx, r.table, key, data)
}

func (r *Repository[T]) Delete(ctx context.Context, s *Session, key Params) (int64, error) {
	return s.DeleteByKey(ctx, r.table, key)
}

// Paginate pages through the table. where is appended after the table name
// and may be built with Where.
func (r *Repository[T]) Paginate(ctx context.Context, s *Session, where string, params Params, page int, size Size) (Paged[T], error) {
	return SelectPaged[T](ctx, s, Script("select * from", r.table, where), params, page, size)
}
