package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/command/commandtest"
	"github.com/kalambet/mkdgcheck/internal/value"
)

const (
	schemaID = "org.freedesktop.IBus.Chewing"
	dir      = "/desktop/ibus/engine/chewing/"
)

var ctx = context.Background()

func newStore() *commandtest.Store {
	s := commandtest.NewStore()
	s.AddSchema(schemaID, dir)
	s.Define(dir+"plain-zhuyin", value.OfBool(true))
	s.Define(dir+"max-chi-symbol-len", value.OfInt(3))
	s.Define(dir+"cand-per-page", value.OfUint(5))
	s.Define(dir+"sel-keys", value.OfString("abc"))
	return s
}

func TestGSettings_GetVerbatim(t *testing.T) {
	p := NewGSettings("", schemaID, newStore())

	raw, ok, err := p.Get(ctx, "cand-per-page")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "uint32 5", raw)

	raw, ok, err = p.Get(ctx, "sel-keys")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "'abc'", raw)
}

func TestGSettings_Fetch(t *testing.T) {
	p := NewGSettings("gsettings", schemaID, newStore())

	tests := []struct {
		key  string
		kind value.Kind
		want value.Value
	}{
		{"plain-zhuyin", value.Bool, value.OfBool(true)},
		{"max-chi-symbol-len", value.Int, value.OfInt(3)},
		{"cand-per-page", value.Uint, value.OfUint(5)},
		{"sel-keys", value.String, value.OfString("abc")},
	}
	for _, tt := range tests {
		got, err := Fetch(ctx, p, tt.key, tt.kind)
		require.NoError(t, err, tt.key)
		assert.True(t, value.Equal(tt.want, got), "%s: got %v", tt.key, got)
	}
}

func TestGSettings_SetThenGet(t *testing.T) {
	s := newStore()
	p := NewGSettings("gsettings", schemaID, s)

	for key, v := range map[string]value.Value{
		"plain-zhuyin":       value.OfBool(false),
		"max-chi-symbol-len": value.OfInt(-2),
		"cand-per-page":      value.OfUint(4),
		"sel-keys":           value.OfString("it's"),
	} {
		require.NoError(t, p.Set(ctx, key, v))
		got, err := Fetch(ctx, p, key, v.Kind())
		require.NoError(t, err)
		assert.True(t, value.Equal(v, got), "%s: got %v want %v", key, got, v)
	}

	// Booleans travel as literal tokens.
	calls := s.Calls()
	assert.Contains(t, calls, []string{"gsettings", "set", schemaID, "plain-zhuyin", "false"})
}

func TestGSettings_NoOutput(t *testing.T) {
	s := newStore()
	s.Silent[dir+"sel-keys"] = true
	p := NewGSettings("gsettings", schemaID, s)

	raw, ok, err := p.Get(ctx, "sel-keys")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, raw)

	_, err = Fetch(ctx, p, "sel-keys", value.String)
	require.ErrorIs(t, err, ErrNoValue)
}

func TestGSettings_EmptyStringIsAValue(t *testing.T) {
	s := newStore()
	s.Define(dir+"sel-keys", value.OfString(""))
	p := NewGSettings("gsettings", schemaID, s)

	got, err := Fetch(ctx, p, "sel-keys", value.String)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.OfString(""), got))
}

func TestGSettings_LaunchFailure(t *testing.T) {
	s := newStore()
	s.Missing["gsettings"] = true
	p := NewGSettings("gsettings", schemaID, s)

	_, _, err := p.Get(ctx, "plain-zhuyin")
	require.ErrorIs(t, err, command.ErrLaunch)
	require.ErrorIs(t, p.Set(ctx, "plain-zhuyin", value.OfBool(true)), command.ErrLaunch)
}

func TestGConf_RoundTrip(t *testing.T) {
	s := newStore()
	p := NewGConf("", "/desktop/ibus/engine/chewing", s)

	got, err := Fetch(ctx, p, "sel-keys", value.String)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.OfString("abc"), got))

	require.NoError(t, p.Set(ctx, "cand-per-page", value.OfUint(9)))
	got, err = Fetch(ctx, p, "cand-per-page", value.Uint)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.OfUint(9), got))

	assert.Contains(t, s.Calls(), []string{"gconftool-2", "--type", "int", "--set", dir + "cand-per-page", "9"})
}

func TestGConfType(t *testing.T) {
	for k, want := range map[value.Kind]string{
		value.Bool: "bool", value.Int: "int", value.Uint: "int", value.String: "string",
	} {
		got, err := GConfType(k)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := GConfType(value.Invalid)
	require.Error(t, err)
}
