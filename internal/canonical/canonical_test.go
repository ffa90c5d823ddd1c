package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	data, err := Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestMarshalScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "null"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float integral", float64(3), "3"},
		{"float negative integral", float64(-10), "-10"},
		{"float fractional", 3.25, "3.25"},
		{"json number int", json.Number("12"), "12"},
		{"json number float", json.Number("0.5"), "0.5"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustMarshal(t, tt.in))
		})
	}
}

func TestMarshalIntFloatEquivalence(t *testing.T) {
	// 3 and 3.0 must produce identical bytes: intents round-tripped
	// through encoding/json carry every number as float64.
	asInt := mustMarshal(t, map[string]any{"n": 3})
	asFloat := mustMarshal(t, map[string]any{"n": float64(3)})
	asNumber := mustMarshal(t, map[string]any{"n": json.Number("3")})

	assert.Equal(t, asInt, asFloat)
	assert.Equal(t, asInt, asNumber)
}

func TestMarshalSortsKeys(t *testing.T) {
	got := mustMarshal(t, map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mike":  3,
	})
	assert.Equal(t, `{"alpha":2,"mike":3,"zebra":1}`, got)
}

func TestMarshalKeyOrderUTF16(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting at 0xD83D, which sorts
	// before the BMP character U+FB00 in UTF-16 code units. UTF-8 byte
	// comparison would order them the other way around.
	got := mustMarshal(t, map[string]any{
		"ﬀ":     "bmp",
		"\U0001F600": "astral",
	})
	assert.Equal(t, `{"😀":"astral","ﬀ":"bmp"}`, got)
}

func TestMarshalNFCNormalization(t *testing.T) {
	composed := mustMarshal(t, "café")
	decomposed := mustMarshal(t, "café")
	assert.Equal(t, composed, decomposed)
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	got := mustMarshal(t, "<a> & </a>")
	assert.Equal(t, `"<a> & </a>"`, got)
}

func TestMarshalNested(t *testing.T) {
	got := mustMarshal(t, map[string]any{
		"b": []any{1, map[string]any{"y": nil, "x": true}},
		"a": "s",
	})
	assert.Equal(t, `{"a":"s","b":[1,{"x":true,"y":null}]}`, got)
}

func TestMarshalNoWhitespace(t *testing.T) {
	got := mustMarshal(t, map[string]any{"a": []any{1, 2}, "b": "x y"})
	assert.Equal(t, `{"a":[1,2],"b":"x y"}`, got)
}

func TestMarshalRejectsUnsupportedTypes(t *testing.T) {
	type custom struct{ X int }

	_, err := Marshal(custom{X: 1})
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"fn": func() {}})
	assert.Error(t, err)

	_, err = Marshal([]any{make(chan int)})
	assert.Error(t, err)
}

func TestMarshalRejectsNonFiniteNumbers(t *testing.T) {
	_, err := Marshal(map[string]any{"nan": nanValue()})
	assert.Error(t, err)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestMarshalRoundTripDecodable(t *testing.T) {
	in := map[string]any{
		"name":  "weather_lookup",
		"count": float64(3),
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"retry": true, "limit": nil},
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
