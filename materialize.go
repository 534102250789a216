package sqlmapper

import (
	"database/sql"
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
	"github.com/oarkflow/date"
	"github.com/oarkflow/json"
	"github.com/shopspring/decimal"
)

var (
	errNull     = errors.New("null value for non-nullable field")
	errRequired = errors.New("field required")
)

// Materialize converts a result row into a T. Text in a column whose field is a
// slice, array, map or struct is decoded as JSON first; every other value is
// coerced into the field's type. Columns T does not declare are ignored.
func Materialize[T any](row Row) (T, error) {
	var out T
	s, err := SchemaOf[T]()
	if err != nil {
		return out, err
	}
	if err := s.fill(reflect.ValueOf(&out).Elem(), row, nil); err != nil {
		return out, err
	}
	return out, nil
}

// MaterializeAll converts rows in order. The first failure aborts.
func MaterializeAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := Materialize[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Schema) fill(dst reflect.Value, m map[string]any, path []string) error {
	for _, f := range s.Fields {
		fpath := append(append([]string(nil), path...), f.Name)
		raw, present := m[f.Name]
		if !present {
			// nested JSON objects are keyed the way encoding/json writes them
			raw, present = m[f.JSONName]
		}
		if isNull(raw) {
			switch {
			case f.HasDefault:
				raw = f.Default
			case f.Nullable:
				continue
			case !f.Required:
				continue
			case present:
				return s.invalid(fpath, errNull)
			default:
				return s.invalid(fpath, errRequired)
			}
		}
		if f.Kind == FieldJSON {
			decoded, err := decodeJSON(raw)
			if err != nil {
				return s.invalid(fpath, err)
			}
			raw = decoded
		}
		if err := assign(dst.FieldByIndex(f.Index), raw); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return s.invalid(append(fpath, ve.Path...), ve.Cause)
			}
			return s.invalid(fpath, err)
		}
	}
	return nil
}

func (s *Schema) invalid(path []string, cause error) error {
	return &ValidationError{Type: s.Type.String(), Path: path, Cause: cause}
}

func decodeJSON(raw any) (any, error) {
	var data []byte
	switch t := raw.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

func assign(dst reflect.Value, src any) error {
	t := dst.Type()
	if isNull(src) {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			dst.Set(reflect.Zero(t))
			return nil
		}
		return errNull
	}
	if t.Kind() == reflect.Ptr {
		elem := reflect.New(t.Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if sv := reflect.ValueOf(src); sv.Type() == t {
		dst.Set(sv)
		return nil
	}
	switch t {
	case timeType:
		ts, err := toTime(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	case durationType:
		d, err := toDuration(src)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	case decimalType:
		d, err := toDecimal(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	case dateType:
		d, err := toDate(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	case timeOfDayType:
		tod, err := toTimeOfDay(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(tod))
		return nil
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		ptr := reflect.New(t)
		if v, err := valueOf(src, false); err == nil {
			src = v.Arg()
		}
		if err := ptr.Interface().(sql.Scanner).Scan(src); err != nil {
			return err
		}
		dst.Set(ptr.Elem())
		return nil
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		text, ok := asText(src)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return err
		}
		dst.Set(ptr.Elem())
		return nil
	}

	switch t.Kind() {
	case reflect.String:
		text, ok := asText(src)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		dst.SetString(text)
	case reflect.Bool:
		b, err := toBool(src)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, t)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(src)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, t)
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			switch b := src.(type) {
			case []byte:
				dst.SetBytes(append([]byte(nil), b...))
				return nil
			case string:
				dst.SetBytes([]byte(b))
				return nil
			}
		}
		sv := reflect.ValueOf(src)
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		out := reflect.MakeSlice(t, sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := assign(out.Index(i), sv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
	case reflect.Array:
		sv := reflect.ValueOf(src)
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		if sv.Len() != t.Len() {
			return fmt.Errorf("want %d items, got %d", t.Len(), sv.Len())
		}
		for i := 0; i < sv.Len(); i++ {
			if err := assign(dst.Index(i), sv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case reflect.Map:
		sv := reflect.ValueOf(src)
		if sv.Kind() != reflect.Map || sv.Type().Key().Kind() != reflect.String || t.Key().Kind() != reflect.String {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		out := reflect.MakeMapWithSize(t, sv.Len())
		iter := sv.MapRange()
		for iter.Next() {
			elem := reflect.New(t.Elem()).Elem()
			if err := assign(elem, iter.Value().Interface()); err != nil {
				return fmt.Errorf("[%s]: %w", iter.Key().String(), err)
			}
			out.SetMapIndex(reflect.ValueOf(iter.Key().String()).Convert(t.Key()), elem)
		}
		dst.Set(out)
	case reflect.Struct:
		m, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		s, err := SchemaFor(t)
		if err != nil {
			return err
		}
		return s.fill(dst, m, nil)
	case reflect.Interface:
		sv := reflect.ValueOf(src)
		if !sv.Type().AssignableTo(t) {
			return fmt.Errorf("cannot use %T as %s", src, t)
		}
		dst.Set(sv)
	default:
		return fmt.Errorf("unsupported field type %s", t)
	}
	return nil
}

func asText(src any) (string, bool) {
	switch t := src.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case decimal.Decimal:
		return t.String(), true
	case civil.Date:
		return t.String(), true
	case civil.Time:
		return t.String(), true
	}
	if sv := reflect.ValueOf(src); sv.Kind() == reflect.String {
		return sv.String(), true
	}
	return "", false
}

func toBool(src any) (bool, error) {
	if text, ok := asText(src); ok {
		return strconv.ParseBool(text)
	}
	n, err := toInt(src)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func toInt(src any) (int64, error) {
	switch t := src.(type) {
	case decimal.Decimal:
		if !t.Equal(t.Truncate(0)) {
			return 0, fmt.Errorf("%s is not an integer", t)
		}
		return t.IntPart(), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	if text, ok := asText(src); ok {
		return strconv.ParseInt(text, 10, 64)
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := sv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("cannot use %T as integer", src)
}

func toFloat(src any) (float64, error) {
	if d, ok := src.(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f, nil
	}
	if text, ok := asText(src); ok {
		return strconv.ParseFloat(text, 64)
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(sv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(sv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return sv.Float(), nil
	}
	return 0, fmt.Errorf("cannot use %T as float", src)
}

func toDecimal(src any) (decimal.Decimal, error) {
	if text, ok := asText(src); ok {
		return decimal.NewFromString(text)
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(sv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromString(strconv.FormatUint(sv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(sv.Float()), nil
	}
	return decimal.Decimal{}, fmt.Errorf("cannot use %T as decimal", src)
}

func toTime(src any) (time.Time, error) {
	switch t := src.(type) {
	case civil.Date:
		return t.In(time.UTC), nil
	case civil.DateTime:
		return t.In(time.UTC), nil
	}
	if text, ok := asText(src); ok {
		return date.Parse(text)
	}
	return time.Time{}, fmt.Errorf("cannot use %T as timestamp", src)
}

func toDate(src any) (civil.Date, error) {
	if t, ok := src.(time.Time); ok {
		return civil.DateOf(t), nil
	}
	text, ok := asText(src)
	if !ok {
		return civil.Date{}, fmt.Errorf("cannot use %T as date", src)
	}
	if d, err := civil.ParseDate(text); err == nil {
		return d, nil
	}
	ts, err := date.Parse(text)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(ts), nil
}

func toTimeOfDay(src any) (civil.Time, error) {
	switch t := src.(type) {
	case time.Time:
		return civil.TimeOf(t), nil
	case time.Duration:
		if t < 0 || t >= 24*time.Hour {
			return civil.Time{}, fmt.Errorf("%s is not a time of day", t)
		}
		return civil.TimeOf(time.Time{}.Add(t)), nil
	}
	text, ok := asText(src)
	if !ok {
		return civil.Time{}, fmt.Errorf("cannot use %T as time of day", src)
	}
	return civil.ParseTime(text)
}

func toDuration(src any) (time.Duration, error) {
	text, ok := asText(src)
	if !ok {
		return 0, fmt.Errorf("cannot use %T as interval", src)
	}
	return parseInterval(text)
}
