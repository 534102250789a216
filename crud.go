package sqlmapper

import (
	"context"
	"sort"
	"strings"
)

// Save inserts data into table and returns the affected row count. Entries
// whose value is nil are left out so the column default applies.
func (s *Session) Save(ctx context.Context, table string, data Row) (int64, error) {
	d := s.Dialect()
	cols := presentColumns(data)
	quoted := make([]string, len(cols))
	markers := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.Quote(col)
		markers[i] = ":" + col
	}
	query := "insert into " + table + " (" + strings.Join(quoted, ", ") + ") values (" + strings.Join(markers, ", ") + ")"
	return s.Insert(ctx, query, pick(data, cols))
}

// UpdateByKey updates the rows of table matching every key entry. Nil data
// entries are skipped; when nothing is left it returns 0 without touching
// the database. A name present in both key and data is bound to the key's value.
func (s *Session) UpdateByKey(ctx context.Context, table string, key Params, data Row) (int64, error) {
	d := s.Dialect()
	cols := presentColumns(data)
	if len(cols) == 0 {
		return 0, nil
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = d.Quote(col) + " = :" + col
	}
	params := pick(data, cols)
	for k, v := range key {
		params[k] = v
	}
	query := "update " + table + " set " + strings.Join(sets, ", ") + " where " + keyPredicate(d, key)
	return s.Update(ctx, query, params)
}

// DeleteByKey deletes the rows of table matching every key entry.
func (s *Session) DeleteByKey(ctx context.Context, table string, key Params) (int64, error) {
	query := "delete from " + table + " where " + keyPredicate(s.Dialect(), key)
	return s.Delete(ctx, query, key)
}

// GetByKey returns the first row of table matching every key entry, or nil.
func (s *Session) GetByKey(ctx context.Context, table string, key Params) (Row, error) {
	d := s.Dialect()
	var query string
	if limit := d.PointLimit(); limit != "" {
		query = "select * from " + table + " where " + keyPredicate(d, key) + " " + limit
	} else {
		query = "select top 1 * from " + table + " where " + keyPredicate(d, key)
	}
	return s.SelectOne(ctx, query, key)
}

func keyPredicate(d Dialect, key Params) string {
	cols := make([]string, 0, len(key))
	for k := range key {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	preds := make([]string, len(cols))
	for i, col := range cols {
		preds[i] = d.Quote(col) + " = :" + col
	}
	return strings.Join(preds, " and ")
}

func presentColumns(data Row) []string {
	cols := make([]string, 0, len(data))
	for k, v := range data {
		if !isNull(v) {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

func pick(data Row, cols []string) Params {
	out := make(Params, len(cols))
	for _, col := range cols {
		out[col] = data[col]
	}
	return out
}
