package sqlmapper

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumn(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		in      any
		colType string
		want    any
	}{
		{"null", nil, "INT", nil},
		{"mysql int text", []byte("42"), "BIGINT", int64(42)},
		{"unsigned", []byte("7"), "UNSIGNED INT", int64(7)},
		{"float text", []byte("1.5"), "DOUBLE", 1.5},
		{"decimal text", []byte("12.50"), "DECIMAL", decimal.RequireFromString("12.50")},
		{"decimal with precision", 3.25, "DECIMAL(10,2)", decimal.NewFromFloat(3.25)},
		{"date from time", ts, "DATE", civil.Date{Year: 2024, Month: 3, Day: 1}},
		{"date text", []byte("2024-03-01"), "DATE", civil.Date{Year: 2024, Month: 3, Day: 1}},
		{"mysql time is an interval", []byte("00:30:00"), "TIME", 30 * time.Minute},
		{"long interval", []byte("-838:59:59"), "TIME", -(838*time.Hour + 59*time.Minute + 59*time.Second)},
		{"mssql time", ts, "TIME", civil.Time{Hour: 10, Minute: 30}},
		{"datetime passthrough", ts, "DATETIME", ts},
		{"blob stays bytes", []byte{0x01, 0x02}, "BLOB", []byte{0x01, 0x02}},
		{"text", []byte("rex"), "VARCHAR", "rex"},
		{"json text", []byte(`{"a":1}`), "JSON", `{"a":1}`},
		{"native int", int64(5), "INTEGER", int64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeColumn(tt.in, tt.colType)
			if d, ok := tt.want.(decimal.Decimal); ok {
				require.IsType(t, decimal.Decimal{}, got)
				assert.True(t, d.Equal(got.(decimal.Decimal)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDatetimeText(t *testing.T) {
	got := normalizeColumn([]byte("2024-03-01T10:30:00Z"), "TIMESTAMP")
	require.IsType(t, time.Time{}, got)
	assert.True(t, got.(time.Time).Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
}

func TestParseInterval(t *testing.T) {
	d, err := parseInterval("01:02:03.250000")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3250*time.Millisecond, d)

	d, err = parseInterval("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = parseInterval("aa:bb:cc")
	assert.Error(t, err)
}
