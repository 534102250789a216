package datatypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/oarkflow/json"
)

// JSON[T] holds a value stored as JSON text in a single column.
type JSON[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface, unmarshaling JSON text from the
// database into Data.
func (j *JSON[T]) Scan(val any) error {
	switch val := val.(type) {
	case []byte:
		return json.Unmarshal(val, &j.Data)
	case string:
		return json.Unmarshal([]byte(val), &j.Data)
	case nil:
		var zero T
		j.Data = zero
		return nil
	default:
		return json.Unmarshal([]byte(fmt.Sprintf("%v", val)), &j.Data)
	}
}

// Value implements the driver.Valuer interface. The column receives JSON text.
func (j JSON[T]) Value() (driver.Value, error) {
	return Encode(j.Data)
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

func (j *JSON[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.Data)
}

// NullJSON[T] represents a JSON[T] that may be null.
type NullJSON[T any] struct {
	Data  T
	Valid bool // Valid is true if the column is not NULL
}

// Scan implements the sql.Scanner interface, handling null values.
func (j *NullJSON[T]) Scan(val any) error {
	if j.Valid = (val != nil); !j.Valid {
		var zero T
		j.Data = zero
		return nil
	}
	inner := JSON[T]{}
	if err := inner.Scan(val); err != nil {
		return err
	}
	j.Data = inner.Data
	return nil
}

// Value implements the driver.Valuer interface, returning nil if not valid.
func (j NullJSON[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	return Encode(j.Data)
}

// Encode renders v as JSON text, the form structured values take in a write
// payload.
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(v any) string {
	s, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return s
}
