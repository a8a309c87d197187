package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/gvariant"
	"github.com/kalambet/mkdgcheck/internal/value"
)

// GSettings drives `gsettings get|set <schema> <key>`.
type GSettings struct {
	Tool     string
	SchemaID string
	Runner   command.Runner
	Logger   *slog.Logger
}

func NewGSettings(tool, schemaID string, r command.Runner) *GSettings {
	if tool == "" {
		tool = "gsettings"
	}
	return &GSettings{Tool: tool, SchemaID: schemaID, Runner: r, Logger: slog.Default()}
}

func (p *GSettings) Name() string { return p.Tool }

func (p *GSettings) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := p.Runner.Run(ctx, p.Tool, "get", p.SchemaID, key)
	if err != nil {
		return "", false, fmt.Errorf("probing %s: %w", key, err)
	}
	line, ok := command.FirstLine(out)
	if !ok {
		p.Logger.Warn("probe printed no value", "tool", p.Tool, "schema", p.SchemaID, "key", key)
		return "", false, nil
	}
	p.Logger.Debug("probe read", "key", key, "raw", line)
	return line, true, nil
}

// Set passes booleans as true/false and strings as quoted GVariant literals.
// Numbers go through as plain decimals; gsettings applies the key's type.
func (p *GSettings) Set(ctx context.Context, key string, v value.Value) error {
	text := v.Text()
	if v.Kind() == value.String {
		text = gvariant.Quote(v.StringVal())
	}
	if _, err := p.Runner.Run(ctx, p.Tool, "set", p.SchemaID, key, text); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Decode strips the "uint32 " annotation gsettings prints for unsigned keys
// and the quotes around strings.
func (p *GSettings) Decode(k value.Kind, raw string) (value.Value, error) {
	return gvariant.Parse(k, raw)
}
