// Package backend writes typed values into a native configuration store.
// Exactly one variant is chosen per process through New.
//
// Neither variant links a client library. The gsettings variant writes with
// `dconf write` while the probe reads back with `gsettings get`, so a pass
// shows the value crossed from dconf into GSettings. The gconf2 variant
// writes and reads with gconftool-2.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/value"
)

var (
	// ErrNoVariant means no usable backend variant was configured.
	ErrNoVariant = errors.New("no backend variant configured")
	// ErrUnknownKey means the key is not declared under the schema path.
	ErrUnknownKey = errors.New("key not in schema")
	// ErrKindMismatch means the value's kind differs from the key's declared type.
	ErrKindMismatch = errors.New("value kind does not match key type")
)

// Backend abstracts the native store a dialog persists its settings into.
type Backend interface {
	Name() string
	// Write stores v under schemaPath/key. Writing the same value twice leaves
	// the store in the same state as writing it once.
	Write(ctx context.Context, v value.Value, schemaPath, key string, opts ...WriteOption) error
	// Read returns the stored value. ok is false when the store holds nothing.
	Read(ctx context.Context, schemaPath, key string, k value.Kind) (v value.Value, ok bool, err error)
}

// WriteOption carries backend-specific write settings.
type WriteOption func(*writeOptions)

type writeOptions struct {
	skipValidation bool
}

// SkipValidation writes without consulting the schema registry.
func SkipValidation() WriteOption {
	return func(o *writeOptions) { o.skipValidation = true }
}

func collect(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const (
	VariantGSettings = "gsettings"
	VariantGConf2    = "gconf2"
)

// Options configures whichever variant New builds.
type Options struct {
	Schema *schema.Schema
	Runner command.Runner
	Logger *slog.Logger

	DconfTool string // gsettings variant; default "dconf"
	GConfTool string // gconf2 variant; default "gconftool-2"
	GConfRoot string // gconf2 variant; default "/desktop/ibus/engine"
}

var constructors = map[string]func(Options) Backend{
	VariantGSettings: func(o Options) Backend { return newDconf(o) },
	VariantGConf2:    func(o Options) Backend { return newGConf(o) },
}

// Variants lists the names New accepts.
func Variants() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the backend registered under variant.
func New(variant string, opts Options) (Backend, error) {
	variant = strings.ToLower(strings.TrimSpace(variant))
	if variant == "" {
		return nil, fmt.Errorf("%w: set --backend or MKDG_BACKEND to one of %s", ErrNoVariant, strings.Join(Variants(), ", "))
	}
	ctor, ok := constructors[variant]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant %q, want one of %s", ErrNoVariant, variant, strings.Join(Variants(), ", "))
	}
	if opts.Schema == nil {
		return nil, errors.New("backend: schema is required")
	}
	if opts.Runner == nil {
		opts.Runner = command.NewExec()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return ctor(opts), nil
}

// validate checks key and kind against the schema registry.
func validate(s *schema.Schema, v value.Value, schemaPath, key string, o writeOptions) error {
	if o.skipValidation {
		return nil
	}
	if normalizePath(schemaPath) != normalizePath(s.Path) {
		return fmt.Errorf("%w: %s%s (schema %s is at %s)", ErrUnknownKey, normalizePath(schemaPath), key, s.ID, s.Path)
	}
	k, ok := s.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s%s", ErrUnknownKey, s.Path, key)
	}
	if k.Kind != v.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, key, k.Kind, v.Kind())
	}
	return nil
}

func normalizePath(p string) string {
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
