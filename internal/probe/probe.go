// Package probe reads and writes configuration keys through the store's own
// command-line tool, independently of any backend under test.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalambet/mkdgcheck/internal/value"
)

// ErrNoValue means the tool printed nothing for a key. It is distinct from a
// key holding the empty string.
var ErrNoValue = errors.New("probe returned no value")

// Probe is an out-of-band view of the native store.
type Probe interface {
	Name() string
	// Get returns the first output line verbatim. ok is false when the tool
	// printed no line at all.
	Get(ctx context.Context, key string) (raw string, ok bool, err error)
	// Set writes v with the tool's mutation command. Success is not checked;
	// callers confirm with a later Get.
	Set(ctx context.Context, key string, v value.Value) error
	// Decode turns raw Get output into a value of kind k, removing any
	// tool-specific decoration such as type annotations or quoting.
	Decode(k value.Kind, raw string) (value.Value, error)
}

// Fetch gets key and decodes it as kind k. An absent line is reported as
// ErrNoValue rather than decoded.
func Fetch(ctx context.Context, p Probe, key string, k value.Kind) (value.Value, error) {
	raw, ok, err := p.Get(ctx, key)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Value{}, fmt.Errorf("%s get %s: %w", p.Name(), key, ErrNoValue)
	}
	v, err := p.Decode(k, raw)
	if err != nil {
		return value.Value{}, fmt.Errorf("%s get %s: %w", p.Name(), key, err)
	}
	return v, nil
}
