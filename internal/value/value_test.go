package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		text string
		want Value
	}{
		{"bool true", Bool, "true", OfBool(true)},
		{"bool false", Bool, "false", OfBool(false)},
		{"int", Int, "3", OfInt(3)},
		{"int negative", Int, "-7", OfInt(-7)},
		{"int plus sign", Int, "+7", OfInt(7)},
		{"uint", Uint, "42", OfUint(42)},
		{"uint tagged", Uint, "uint32 42", OfUint(42)},
		{"string", String, "abc", OfString("abc")},
		{"string empty", String, "", OfString("")},
		{"string keeps spaces", String, " a b ", OfString(" a b ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromText(tt.kind, tt.text)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestFromText_Invalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		text string
	}{
		{"bool numeric", Bool, "1"},
		{"bool capitalised", Bool, "True"},
		{"int words", Int, "three"},
		{"int empty", Int, ""},
		{"uint negative", Uint, "-1"},
		{"uint tag only", Uint, "uint32 "},
		{"invalid kind", Invalid, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromText(tt.kind, tt.text)
			require.ErrorIs(t, err, ErrInvalidText)
		})
	}
}

func TestUintTagStripping(t *testing.T) {
	tagged, err := FromText(Uint, "uint32 42")
	require.NoError(t, err)
	plain, err := FromText(Uint, "42")
	require.NoError(t, err)
	assert.True(t, Equal(tagged, plain))
}

func TestTextRoundTrip(t *testing.T) {
	for _, v := range []Value{
		OfBool(true), OfBool(false),
		OfInt(0), OfInt(-12), OfInt(math.MaxInt64),
		OfUint(0), OfUint(math.MaxUint64),
		OfString("abc"), OfString(""),
	} {
		got, err := FromText(v.Kind(), v.Text())
		require.NoError(t, err, "value %v", v)
		assert.True(t, Equal(v, got), "round trip of %v gave %v", v, got)
	}
}

func TestBoolTextLiterals(t *testing.T) {
	assert.Equal(t, "true", OfBool(true).Text())
	assert.Equal(t, "false", OfBool(false).Text())
}

func TestEqual_KindSafe(t *testing.T) {
	values := []Value{OfBool(false), OfInt(0), OfUint(0), OfString(""), {}}
	for i, a := range values {
		for j, b := range values {
			if i == j {
				continue
			}
			assert.False(t, Equal(a, b), "%v (%s) should not equal %v (%s)", a, a.Kind(), b, b.Kind())
		}
	}
	assert.False(t, Equal(Value{}, Value{}), "invalid values equal nothing")
	assert.True(t, OfInt(5).Equal(OfInt(5)))
}

func TestDerive(t *testing.T) {
	tests := []struct {
		in   Value
		want Value
	}{
		{OfBool(true), OfBool(false)},
		{OfBool(false), OfBool(true)},
		{OfInt(3), OfInt(2)},
		{OfInt(0), OfInt(1)},
		{OfInt(-4), OfInt(-3)},
		{OfInt(math.MinInt64), OfInt(math.MinInt64 + 1)},
		{OfUint(5), OfUint(4)},
		{OfUint(0), OfUint(1)},
		{OfString("abc"), OfString("abcx")},
		{OfString(""), OfString("x")},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got := Derive(tt.in)
			assert.True(t, Equal(tt.want, got), "Derive(%v) = %v, want %v", tt.in, got, tt.want)
			assert.False(t, Equal(tt.in, got), "Derive(%v) must differ from its input", tt.in)
			assert.Equal(t, tt.in.Kind(), got.Kind())
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	v := OfString("sel")
	assert.True(t, Equal(Derive(v), Derive(v)))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"b": Bool, "boolean": Bool, "bool": Bool,
		"i": Int, "int": Int,
		"u": Uint, "UINT": Uint,
		"s": String, "string": String,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("d")
	require.Error(t, err)
}
