// Package gvariant formats and parses the GVariant text form used by
// gsettings and dconf for the four scalar types the harness supports.
package gvariant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kalambet/mkdgcheck/internal/value"
)

// ErrOutOfRange is returned when an integer does not fit the 32-bit GVariant type.
var ErrOutOfRange = errors.New("value out of range for GVariant type")

// Type annotations GVariant may print in front of a number.
var annotations = map[value.Kind]string{
	value.Int:  "int32 ",
	value.Uint: "uint32 ",
}

// CheckRange reports whether v fits the 32-bit GVariant type of its kind.
func CheckRange(v value.Value) error {
	switch v.Kind() {
	case value.Int:
		if v.IntVal() < math.MinInt32 || v.IntVal() > math.MaxInt32 {
			return fmt.Errorf("%w: %d is not an int32", ErrOutOfRange, v.IntVal())
		}
	case value.Uint:
		if v.UintVal() > math.MaxUint32 {
			return fmt.Errorf("%w: %d is not a uint32", ErrOutOfRange, v.UintVal())
		}
	}
	return nil
}

// Format renders v as a GVariant text literal. Unsigned values carry their
// uint32 annotation so dconf stores them with the right type.
func Format(v value.Value) (string, error) {
	if err := CheckRange(v); err != nil {
		return "", err
	}
	switch v.Kind() {
	case value.Bool, value.Int:
		return v.Text(), nil
	case value.Uint:
		return annotations[value.Uint] + v.Text(), nil
	case value.String:
		return Quote(v.StringVal()), nil
	default:
		return "", fmt.Errorf("cannot format kind %s", v.Kind())
	}
}

// Parse decodes a GVariant text literal of the given kind. Numeric type
// annotations and string quoting are removed before the text is decoded.
func Parse(k value.Kind, text string) (value.Value, error) {
	text = strings.TrimSpace(text)
	switch k {
	case value.Int, value.Uint:
		text = strings.TrimPrefix(text, annotations[k])
		return value.FromText(k, text)
	case value.String:
		s, err := Unquote(text)
		if err != nil {
			return value.Value{}, err
		}
		return value.OfString(s), nil
	default:
		return value.FromText(k, text)
	}
}

// Single-character escapes shared by Quote and Unquote.
var (
	escapeOf = map[rune]byte{
		'\a': 'a', '\b': 'b', '\f': 'f', '\n': 'n', '\r': 'r', '\t': 't', '\v': 'v',
	}
	unescapeOf = map[rune]rune{
		'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
	}
)

// Quote returns s as a single-quoted GVariant string literal, escaping
// non-printable characters the way g_variant_print does.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case escapeOf[r] != 0:
			b.WriteByte('\\')
			b.WriteByte(escapeOf[r])
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Unquote reverses Quote. Double-quoted literals are accepted as well.
func Unquote(text string) (string, error) {
	if len(text) < 2 {
		return "", fmt.Errorf("%w: %q is not a quoted string", value.ErrInvalidText, text)
	}
	q := text[0]
	if (q != '\'' && q != '"') || text[len(text)-1] != q {
		return "", fmt.Errorf("%w: %q is not a quoted string", value.ErrInvalidText, text)
	}
	body := []rune(text[1 : len(text)-1])
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		r := body[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		i++
		if i == len(body) {
			return "", fmt.Errorf("%w: %q ends in an escape", value.ErrInvalidText, text)
		}
		e := body[i]
		if c, ok := unescapeOf[e]; ok {
			b.WriteRune(c)
			continue
		}
		width := 0
		switch e {
		case 'u':
			width = 4
		case 'U':
			width = 8
		default:
			b.WriteRune(e)
			continue
		}
		if i+width >= len(body) {
			return "", fmt.Errorf("%w: %q has a short \\%c escape", value.ErrInvalidText, text, e)
		}
		n, err := strconv.ParseUint(string(body[i+1:i+1+width]), 16, 32)
		if err != nil || n > unicode.MaxRune {
			return "", fmt.Errorf("%w: %q has a bad \\%c escape", value.ErrInvalidText, text, e)
		}
		b.WriteRune(rune(n))
		i += width
	}
	return b.String(), nil
}
