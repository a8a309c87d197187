package backend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/gvariant"
	"github.com/kalambet/mkdgcheck/internal/probe"
	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/value"
)

const defaultGConfRoot = "/desktop/ibus/engine"

// gconfBackend is the GConf2 variant. Keys live under root joined with the
// last element of the schema path.
type gconfBackend struct {
	schema *schema.Schema
	runner command.Runner
	tool   string
	root   string
	logger *slog.Logger
}

func newGConf(o Options) *gconfBackend {
	b := &gconfBackend{schema: o.Schema, runner: o.Runner, tool: o.GConfTool, root: o.GConfRoot, logger: o.Logger}
	if b.tool == "" {
		b.tool = "gconftool-2"
	}
	if b.root == "" {
		b.root = defaultGConfRoot
	}
	return b
}

func (b *gconfBackend) Name() string { return VariantGConf2 }

// Dir returns the GConf directory holding the keys of schemaPath.
func (b *gconfBackend) Dir(schemaPath string) string {
	return path.Join(b.root, path.Base(normalizePath(schemaPath)))
}

func (b *gconfBackend) Write(ctx context.Context, v value.Value, schemaPath, key string, opts ...WriteOption) error {
	if err := validate(b.schema, v, schemaPath, key, collect(opts)); err != nil {
		return err
	}
	if err := gvariant.CheckRange(v); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if v.Kind() == value.Uint && v.UintVal() > math.MaxInt32 {
		return fmt.Errorf("writing %s: %w: %d does not fit a gconf int", key, gvariant.ErrOutOfRange, v.UintVal())
	}
	typ, err := probe.GConfType(v.Kind())
	if err != nil {
		return err
	}
	full := path.Join(b.Dir(schemaPath), key)
	if _, err := b.runner.Run(ctx, b.tool, "--type", typ, "--set", full, v.Text()); err != nil {
		return fmt.Errorf("writing %s: %w", full, err)
	}
	b.logger.Debug("backend write", "backend", VariantGConf2, "path", full, "value", v.Text())
	return nil
}

func (b *gconfBackend) Read(ctx context.Context, schemaPath, key string, k value.Kind) (value.Value, bool, error) {
	full := path.Join(b.Dir(schemaPath), key)
	out, err := b.runner.Run(ctx, b.tool, "--get", full)
	if err != nil {
		return value.Value{}, false, fmt.Errorf("reading %s: %w", full, err)
	}
	line, ok := command.FirstLine(out)
	if !ok {
		return value.Value{}, false, nil
	}
	v, err := value.FromText(k, line)
	if err != nil {
		return value.Value{}, true, fmt.Errorf("reading %s: %w", full, err)
	}
	return v, true, nil
}
