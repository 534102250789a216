package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}

func TestJSONScan(t *testing.T) {
	var j JSON[address]
	require.NoError(t, j.Scan([]byte(`{"city":"Oslo","zip":"0150"}`)))
	assert.Equal(t, address{City: "Oslo", Zip: "0150"}, j.Data)

	require.NoError(t, j.Scan(`{"city":"Bergen"}`))
	assert.Equal(t, "Bergen", j.Data.City)

	require.NoError(t, j.Scan(nil))
	assert.Equal(t, address{}, j.Data)

	assert.Error(t, j.Scan([]byte(`{"city":`)))
}

func TestJSONValue(t *testing.T) {
	v, err := JSON[[]int]{Data: []int{1, 2}}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", v)

	data, err := JSON[address]{Data: address{City: "Oslo"}}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Oslo","zip":""}`, string(data))

	var back JSON[address]
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, "Oslo", back.Data.City)
}

func TestNullJSON(t *testing.T) {
	var n NullJSON[map[string]int]
	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)
	v, err := n.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, n.Scan(`{"a":1}`))
	assert.True(t, n.Valid)
	assert.Equal(t, map[string]int{"a": 1}, n.Data)
	v, err = n.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, `["a","b"]`, MustEncode([]string{"a", "b"}))
	_, err := Encode(make(chan int))
	assert.Error(t, err)
	assert.Panics(t, func() { MustEncode(func() {}) })
}
