package db

import (
	"context"

	"github.com/oarkflow/sqlmapper"
)

// One [T] runs query on the session and materializes its first row.
// It returns nil when the query yields no row.
func One[T any](ctx context.Context, s *sqlmapper.Session, query string, params sqlmapper.Params) (*T, error) {
	row, err := s.SelectOne(ctx, query, params)
	if err != nil || row == nil {
		return nil, err
	}
	dest, err := sqlmapper.Materialize[T](row)
	if err != nil {
		return nil, err
	}
	return &dest, nil
}

// All [T] runs query on the session and materializes every row.
func All[T any](ctx context.Context, s *sqlmapper.Session, query string, params sqlmapper.Params) ([]T, error) {
	rows, err := s.SelectAll(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return sqlmapper.MaterializeAll[T](rows)
}

// Get [T] runs query on the session stored in ctx by Pool.Do or Pool.Middleware.
func Get[T any](ctx context.Context, query string, params sqlmapper.Params) (*T, error) {
	s, err := sqlmapper.SessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	return One[T](ctx, s, query, params)
}

// Select [T] is the All counterpart of Get.
func Select[T any](ctx context.Context, query string, params sqlmapper.Params) ([]T, error) {
	s, err := sqlmapper.SessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	return All[T](ctx, s, query, params)
}

// Paged [T] pages through query on the session stored in ctx.
func Paged[T any](ctx context.Context, query string, params sqlmapper.Params, page int, size sqlmapper.Size) (sqlmapper.Paged[T], error) {
	s, err := sqlmapper.SessionFrom(ctx)
	if err != nil {
		return sqlmapper.Paged[T]{}, err
	}
	return sqlmapper.SelectPaged[T](ctx, s, query, params, page, size)
}
