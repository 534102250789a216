package sqlmapper

import (
	"database/sql"
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/oarkflow/sqlmapper/utils/xstrings"
)

// FieldKind is the declared target kind of a record field.
type FieldKind uint8

const (
	FieldAny FieldKind = iota
	FieldText
	FieldBool
	FieldInt
	FieldUint
	FieldFloat
	FieldDecimal
	FieldBytes
	FieldTimestamp
	FieldDate
	FieldTimeOfDay
	FieldInterval
	FieldScanner
	FieldEnum
	FieldJSON
)

// Field describes one column of a record type.
type Field struct {
	Name       string
	GoName     string
	JSONName   string
	Index      []int
	Type       reflect.Type
	Kind       FieldKind
	Nullable   bool
	Required   bool
	Default    string
	HasDefault bool
	// RawSQL, when set, is selected as "(RawSQL) as Name" by paginated reads.
	RawSQL string
}

// Schema is the ordered field list of a record type. It is built once per
// type and shared.
type Schema struct {
	Type   reflect.Type
	Fields []Field
	byName map[string]int
}

var schemas sync.Map // reflect.Type -> *Schema

var (
	timeType        = reflect.TypeOf(time.Time{})
	durationType    = reflect.TypeOf(time.Duration(0))
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	dateType        = reflect.TypeOf(civil.Date{})
	timeOfDayType   = reflect.TypeOf(civil.Time{})
	bytesType       = reflect.TypeOf([]byte(nil))
	scannerType     = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// SchemaOf returns the schema of the struct type T.
func SchemaOf[T any]() (*Schema, error) {
	return SchemaFor(reflect.TypeOf((*T)(nil)).Elem())
}

// MustSchemaOf is like SchemaOf but panics on error. Intended for package-level vars.
func MustSchemaOf[T any]() *Schema {
	s, err := SchemaOf[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaFor returns the schema of a struct type (or pointer to one).
func SchemaFor(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := schemas.Load(t); ok {
		return cached.(*Schema), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record type %s is not a struct", ErrPrecondition, t)
	}
	s := &Schema{Type: t, byName: map[string]int{}}
	if err := s.collect(t, nil); err != nil {
		return nil, err
	}
	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

func (s *Schema) collect(t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup("db")
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && !hasTag && sf.Type.Kind() == reflect.Struct {
			if err := s.collect(sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = xstrings.ToSnakeCase(sf.Name)
		}
		if _, dup := s.byName[name]; dup {
			return fmt.Errorf("%w: %s has two fields named %q", ErrPrecondition, t, name)
		}
		f := Field{
			Name:   name,
			GoName: sf.Name,
			Index:  index,
			Type:   sf.Type,
			RawSQL: sf.Tag.Get("raw"),
		}
		f.JSONName, _, _ = strings.Cut(sf.Tag.Get("json"), ",")
		if f.JSONName == "" || f.JSONName == "-" {
			f.JSONName = sf.Name
		}
		f.Default, f.HasDefault = sf.Tag.Lookup("default")
		base := sf.Type
		if base.Kind() == reflect.Ptr {
			f.Nullable = true
			base = base.Elem()
		}
		f.Kind = kindOf(base)
		f.Required = !f.Nullable && !f.HasDefault && opts != "omitempty"
		s.byName[name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func kindOf(t reflect.Type) FieldKind {
	switch t {
	case timeType:
		return FieldTimestamp
	case durationType:
		return FieldInterval
	case decimalType:
		return FieldDecimal
	case dateType:
		return FieldDate
	case timeOfDayType:
		return FieldTimeOfDay
	case bytesType:
		return FieldBytes
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return FieldScanner
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return FieldEnum
	}
	switch t.Kind() {
	case reflect.String:
		return FieldText
	case reflect.Bool:
		return FieldBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FieldInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldUint
	case reflect.Float32, reflect.Float64:
		return FieldFloat
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return FieldBytes
		}
		return FieldJSON
	case reflect.Array, reflect.Map, reflect.Struct:
		return FieldJSON
	}
	return FieldAny
}

// Field looks a field up by column name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// SelectList renders the column list of a paginated read: each field is
// either its quoted name or "(RawSQL) as <quoted name>".
func (s *Schema) SelectList(d Dialect) string {
	items := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		if f.RawSQL != "" {
			items[i] = "(" + f.RawSQL + ") as " + d.Quote(f.Name)
		} else {
			items[i] = d.Quote(f.Name)
		}
	}
	return strings.Join(items, ", ")
}
