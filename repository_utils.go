package sqlmapper

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/oarkflow/json"
)

// RowOf turns a record into a write payload keyed by column name. Computed
// (raw) fields are left out, nil pointers become nil, and slice, array, map
// and struct fields are encoded as JSON text.
func RowOf(record any) (Row, error) {
	if m, ok := record.(map[string]any); ok {
		return m, nil
	}
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil record", ErrPrecondition)
		}
		v = v.Elem()
	}
	s, err := SchemaFor(v.Type())
	if err != nil {
		return nil, err
	}
	row := make(Row, len(s.Fields))
	for _, f := range s.Fields {
		if f.RawSQL != "" {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if f.Nullable {
			if fv.IsNil() {
				row[f.Name] = nil
				continue
			}
			fv = fv.Elem()
		}
		switch f.Kind {
		case FieldJSON:
			if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map {
				if fv.IsNil() {
					row[f.Name] = nil
					continue
				}
			}
			data, err := json.Marshal(fv.Interface())
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.Name, err)
			}
			row[f.Name] = string(data)
		case FieldEnum:
			if m, ok := fv.Interface().(encoding.TextMarshaler); ok {
				text, err := m.MarshalText()
				if err != nil {
					return nil, fmt.Errorf("encode %s: %w", f.Name, err)
				}
				row[f.Name] = string(text)
				continue
			}
			row[f.Name] = fv.Interface()
		default:
			row[f.Name] = fv.Interface()
		}
	}
	return row, nil
}

// splitKey moves the named columns of row into a key.
func splitKey(row Row, keys []string) (Params, Row, error) {
	key := make(Params, len(keys))
	rest := make(Row, len(row))
	for k, v := range row {
		rest[k] = v
	}
	for _, k := range keys {
		v, ok := rest[k]
		if !ok || isNull(v) {
			return nil, nil, fmt.Errorf("%w: key column %q is empty", ErrPrecondition, k)
		}
		key[k] = v
		delete(rest, k)
	}
	return key, rest, nil
}
