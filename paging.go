package sqlmapper

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Size is the page size argument of SelectPaged.
type Size struct {
	n   int
	set bool
	all bool
}

var (
	// SizeDefault uses the pool's configured page size.
	SizeDefault = Size{}
	// SizeAll returns every row without counting or limiting.
	SizeAll = Size{all: true}
)

// SizeOf requests pages of n rows.
func SizeOf(n int) Size { return Size{n: n, set: true} }

// Paged is a page of records. In unbounded mode only Items is set.
type Paged[T any] struct {
	Items []T    `json:"items"`
	Page  *int   `json:"page,omitempty"`
	Size  *int   `json:"size,omitempty"`
	Total *int64 `json:"total,omitempty"`
}

type Pagination struct {
	TotalRecords int64 `json:"total_records"`
	TotalPage    int   `json:"total_page"`
	Offset       int   `json:"offset"`
	Limit        int   `json:"limit"`
	Page         int   `json:"page"`
	PrevPage     int   `json:"prev_page"`
	NextPage     int   `json:"next_page"`
}

func (p Pagination) IsEmpty() bool {
	return p.TotalRecords <= 0
}

// Pagination summarises a bounded page for navigation. It is nil for
// unbounded results.
func (p Paged[T]) Pagination() *Pagination {
	if p.Page == nil || p.Size == nil || p.Total == nil {
		return nil
	}
	page, size, total := *p.Page, *p.Size, *p.Total
	paginator := &Pagination{
		TotalRecords: total,
		TotalPage:    int(math.Ceil(float64(total) / float64(size))),
		Offset:       (page - 1) * size,
		Limit:        size,
		Page:         page,
		PrevPage:     page,
		NextPage:     page,
	}
	if page > 1 {
		paginator.PrevPage = page - 1
	}
	if page < paginator.TotalPage {
		paginator.NextPage = page + 1
	}
	return paginator
}

const selectStar = "select * from"

// SelectPaged runs a "select * from ..." query for T. The star is replaced
// by T's column list, where a field tagged raw:"expr" is selected as
// "(expr) as name". Unless size is SizeAll the total is counted with the
// same params and one page of rows is fetched; page numbers start at 1 and
// lower values are treated as 1.
func SelectPaged[T any](ctx context.Context, s *Session, query string, params Params, page int, size Size) (Paged[T], error) {
	var out Paged[T]
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < len(selectStar) || !strings.EqualFold(trimmed[:len(selectStar)], selectStar) {
		return out, fmt.Errorf("%w: paged query must start with %q", ErrPrecondition, selectStar)
	}
	headless := strings.TrimRight(trimmed[len(selectStar):], " \t\r\n")
	schema, err := SchemaOf[T]()
	if err != nil {
		return out, err
	}
	d := s.Dialect()
	selectCols := "select " + schema.SelectList(d) + " from"

	if size.all {
		rows, err := s.SelectAll(ctx, selectCols+headless, params)
		if err != nil {
			return out, err
		}
		out.Items, err = MaterializeAll[T](rows)
		return out, err
	}

	n := s.pool.pageSize
	if size.set {
		n = size.n
	}
	if n <= 0 {
		return out, fmt.Errorf("%w: page size %d", ErrPrecondition, n)
	}
	page = max(1, page)

	counted, err := s.SelectOne(ctx, "select count(*) as total from"+headless, params)
	if err != nil {
		return out, err
	}
	if counted == nil {
		return out, fmt.Errorf("%w: count query returned no row", ErrPrecondition)
	}
	total, err := toInt(counted["total"])
	if err != nil {
		return out, fmt.Errorf("count query: %w", err)
	}

	rows, err := s.SelectAll(ctx, selectCols+headless+" "+d.Limit(n, (page-1)*n), params)
	if err != nil {
		return out, err
	}
	if out.Items, err = MaterializeAll[T](rows); err != nil {
		return out, err
	}
	out.Page, out.Size, out.Total = &page, &n, &total
	return out, nil
}
