package sqlmapper

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Kind enumerates the scalar kinds exchanged with the driver, plus KindList
// for collection-valued query parameters.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindInt
	KindFloat
	KindDecimal
	KindBytes
	KindTimestamp
	KindDate
	KindTimeOfDay
	KindInterval
	KindList
)

var kindNames = [...]string{
	KindNull:      "null",
	KindText:      "text",
	KindInt:       "int",
	KindFloat:     "float",
	KindDecimal:   "decimal",
	KindBytes:     "bytes",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTimeOfDay: "time",
	KindInterval:  "interval",
	KindList:      "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged scalar (or a list of scalars). The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	d    decimal.Decimal
	b    []byte
	t    time.Time
	date civil.Date
	tod  civil.Time
	dur  time.Duration
	list []Value

	// an Int that came from a Go bool
	boolean bool
}

func Null() Value                     { return Value{} }
func Text(s string) Value             { return Value{kind: KindText, s: s} }
func Int(i int64) Value               { return Value{kind: KindInt, i: i} }
func Float(f float64) Value           { return Value{kind: KindFloat, f: f} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }
func Bytes(b []byte) Value            { return Value{kind: KindBytes, b: b} }
func Timestamp(t time.Time) Value     { return Value{kind: KindTimestamp, t: t} }
func Date(d civil.Date) Value         { return Value{kind: KindDate, date: d} }
func TimeOfDay(t civil.Time) Value    { return Value{kind: KindTimeOfDay, tod: t} }
func Interval(d time.Duration) Value  { return Value{kind: KindInterval, dur: d} }
func (v Value) Kind() Kind            { return v.kind }
func (v Value) IsNull() bool          { return v.kind == KindNull }

// List builds a collection value. Nested lists are rejected by ValueOf, not here.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Items returns the members of a list value.
func (v Value) Items() []Value { return v.list }

// ArgFor is Arg for a given placeholder style. Booleans classify as Int so
// MySQL receives 0/1, but travel as bool to drivers with a native boolean
// parameter type (pgx, go-mssqldb).
func (v Value) ArgFor(bind BindType) any {
	if v.boolean && bind != QUESTION {
		return v.i == 1
	}
	return v.Arg()
}

// Arg returns the value in the form handed to database/sql. Calendar and
// clock values travel as text so every dialect accepts them for DATE/TIME columns.
func (v Value) Arg() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDecimal:
		return v.d.String()
	case KindBytes:
		return v.b
	case KindTimestamp:
		return v.t
	case KindDate:
		return v.date.String()
	case KindTimeOfDay:
		return v.tod.String()
	case KindInterval:
		return formatInterval(v.dur)
	case KindList:
		args := make([]any, len(v.list))
		for i, item := range v.list {
			args[i] = item.Arg()
		}
		return args
	}
	return nil
}

func (v Value) String() string {
	if v.kind == KindList {
		return fmt.Sprint(v.Arg())
	}
	if v.kind == KindNull {
		return "NULL"
	}
	return fmt.Sprint(v.Arg())
}

// ValueOf classifies a Go value into a Value. Slices and arrays (other than
// []byte) become lists; a list inside a list is unsupported.
func ValueOf(x any) (Value, error) {
	return valueOf(x, true)
}

func valueOf(x any, allowList bool) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		if t.kind == KindList && !allowList {
			return Value{}, fmt.Errorf("%w: nested list", ErrUnsupportedValue)
		}
		return t, nil
	case string:
		return Text(t), nil
	case []byte:
		return Bytes(t), nil
	case bool:
		v := Int(0)
		if t {
			v.i = 1
		}
		v.boolean = true
		return v, nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return unsigned(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return unsigned(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case decimal.Decimal:
		return Decimal(t), nil
	case time.Time:
		return Timestamp(t), nil
	case civil.Date:
		return Date(t), nil
	case civil.Time:
		return TimeOfDay(t), nil
	case civil.DateTime:
		return Timestamp(t.In(time.UTC)), nil
	case time.Duration:
		return Interval(t), nil
	case driver.Valuer:
		rv := reflect.ValueOf(t)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return Null(), nil
		}
		dv, err := t.Value()
		if err != nil {
			return Value{}, err
		}
		return valueOf(dv, false)
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return Null(), nil
		}
		return valueOf(rv.Elem().Interface(), allowList)
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Bool:
		return valueOf(rv.Bool(), false)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Slice {
			return Bytes(rv.Bytes()), nil
		}
		if !allowList {
			return Value{}, fmt.Errorf("%w: nested list %T", ErrUnsupportedValue, x)
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := valueOf(rv.Index(i).Interface(), false)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return List(items...), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
}

func unsigned(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}
	return Int(int64(u)), nil
}

// Row is one result record (or one write payload) keyed by column name.
// Values are scalars or nil; structured values must be encoded to text first.
type Row = map[string]any

// Params maps placeholder names to scalars, nil, or collections of scalars.
type Params = map[string]any

// IsRow reports whether every value in m is a scalar or nil.
func IsRow(m map[string]any) bool {
	for _, x := range m {
		v, err := valueOf(x, false)
		if err != nil || v.kind == KindList {
			return false
		}
	}
	return true
}

// IsParams reports whether every value in m is a scalar, nil, or a flat
// collection of scalars.
func IsParams(m map[string]any) bool {
	for _, x := range m {
		if _, err := valueOf(x, true); err != nil {
			return false
		}
	}
	return true
}

func isNull(x any) bool {
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func formatInterval(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	out := fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
	if d > 0 {
		out += fmt.Sprintf(".%06d", d/time.Microsecond)
	}
	return out
}
