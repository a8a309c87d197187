package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/gvariant"
	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/value"
)

// dconfBackend is the GSettings variant. It writes GVariant literals straight
// into dconf, the database GSettings reads from, so it never goes through the
// gsettings tool the probe uses.
type dconfBackend struct {
	schema *schema.Schema
	runner command.Runner
	tool   string
	logger *slog.Logger
}

func newDconf(o Options) *dconfBackend {
	tool := o.DconfTool
	if tool == "" {
		tool = "dconf"
	}
	return &dconfBackend{schema: o.Schema, runner: o.Runner, tool: tool, logger: o.Logger}
}

func (b *dconfBackend) Name() string { return VariantGSettings }

func (b *dconfBackend) Write(ctx context.Context, v value.Value, schemaPath, key string, opts ...WriteOption) error {
	if err := validate(b.schema, v, schemaPath, key, collect(opts)); err != nil {
		return err
	}
	text, err := gvariant.Format(v)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	full := normalizePath(schemaPath) + key
	if _, err := b.runner.Run(ctx, b.tool, "write", full, text); err != nil {
		return fmt.Errorf("writing %s: %w", full, err)
	}
	b.logger.Debug("backend write", "backend", VariantGSettings, "path", full, "value", text)
	return nil
}

func (b *dconfBackend) Read(ctx context.Context, schemaPath, key string, k value.Kind) (value.Value, bool, error) {
	full := normalizePath(schemaPath) + key
	out, err := b.runner.Run(ctx, b.tool, "read", full)
	if err != nil {
		return value.Value{}, false, fmt.Errorf("reading %s: %w", full, err)
	}
	line, ok := command.FirstLine(out)
	if !ok || line == "" {
		return value.Value{}, false, nil
	}
	v, err := gvariant.Parse(k, line)
	if err != nil {
		return value.Value{}, true, fmt.Errorf("reading %s: %w", full, err)
	}
	return v, true, nil
}
