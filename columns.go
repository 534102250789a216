package sqlmapper

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/oarkflow/date"
	"github.com/shopspring/decimal"
)

// scanRows reads every remaining row as a Row. Column values are normalised
// by their database type name so that DECIMAL arrives as decimal.Decimal, a
// MySQL TIME as time.Duration, and so on regardless of the driver.
func scanRows(rows *sql.Rows, limit int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeColumn(values[i], colTypes[i].DatabaseTypeName())
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}

func normalizeColumn(v any, colType string) any {
	if v == nil {
		return nil
	}
	colType = strings.ToUpper(colType)
	if i := strings.IndexByte(colType, '('); i >= 0 {
		colType = colType[:i]
	}
	colType = strings.TrimPrefix(colType, "UNSIGNED ")
	switch colType {
	case "DECIMAL", "NUMERIC", "NEWDECIMAL", "MONEY", "SMALLMONEY":
		switch t := v.(type) {
		case []byte:
			if d, err := decimal.NewFromString(string(t)); err == nil {
				return d
			}
			return string(t)
		case string:
			if d, err := decimal.NewFromString(t); err == nil {
				return d
			}
		case float64:
			return decimal.NewFromFloat(t)
		case int64:
			return decimal.NewFromInt(t)
		}
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR", "INT2", "INT4", "INT8":
		switch t := v.(type) {
		case []byte:
			if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
				return n
			}
			return string(t)
		case int32:
			return int64(t)
		}
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		switch t := v.(type) {
		case []byte:
			if f, err := strconv.ParseFloat(string(t), 64); err == nil {
				return f
			}
			return string(t)
		case float32:
			return float64(t)
		}
	case "DATE":
		switch t := v.(type) {
		case time.Time:
			return civil.DateOf(t)
		case []byte:
			if d, err := civil.ParseDate(string(t)); err == nil {
				return d
			}
			return string(t)
		case string:
			if d, err := civil.ParseDate(t); err == nil {
				return d
			}
		}
	case "TIME":
		switch t := v.(type) {
		case time.Time:
			return civil.TimeOf(t)
		case []byte:
			if d, err := parseInterval(string(t)); err == nil {
				return d
			}
			return string(t)
		case string:
			if d, err := parseInterval(t); err == nil {
				return d
			}
		}
	case "DATETIME", "DATETIME2", "TIMESTAMP", "TIMESTAMPTZ", "SMALLDATETIME", "DATETIMEOFFSET":
		switch t := v.(type) {
		case []byte:
			if ts, err := date.Parse(string(t)); err == nil {
				return ts
			}
			return string(t)
		case string:
			if ts, err := date.Parse(t); err == nil {
				return ts
			}
		}
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BYTEA", "IMAGE":
		return v
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// parseInterval parses a MySQL TIME value ("[-]HHH:MM:SS[.ffffff]") or, failing
// that, Go duration syntax.
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	parts := strings.Split(body, ":")
	if len(parts) != 3 {
		return time.ParseDuration(s)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, err
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second)+0.5)
	if neg {
		d = -d
	}
	return d, nil
}
