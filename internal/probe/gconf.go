package probe

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/value"
)

// GConf drives gconftool-2 against keys under Dir.
type GConf struct {
	Tool   string
	Dir    string
	Runner command.Runner
	Logger *slog.Logger
}

func NewGConf(tool, dir string, r command.Runner) *GConf {
	if tool == "" {
		tool = "gconftool-2"
	}
	return &GConf{Tool: tool, Dir: dir, Runner: r, Logger: slog.Default()}
}

func (p *GConf) Name() string { return p.Tool }

func (p *GConf) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := p.Runner.Run(ctx, p.Tool, "--get", path.Join(p.Dir, key))
	if err != nil {
		return "", false, fmt.Errorf("probing %s: %w", key, err)
	}
	line, ok := command.FirstLine(out)
	if !ok {
		p.Logger.Warn("probe printed no value", "tool", p.Tool, "dir", p.Dir, "key", key)
		return "", false, nil
	}
	return line, true, nil
}

func (p *GConf) Set(ctx context.Context, key string, v value.Value) error {
	typ, err := GConfType(v.Kind())
	if err != nil {
		return err
	}
	if _, err := p.Runner.Run(ctx, p.Tool, "--type", typ, "--set", path.Join(p.Dir, key), v.Text()); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Decode parses gconftool-2 output, which prints values without decoration.
func (p *GConf) Decode(k value.Kind, raw string) (value.Value, error) {
	return value.FromText(k, raw)
}

// GConfType maps a kind to a gconftool-2 --type argument. GConf has no
// unsigned type, so unsigned values are stored as int.
func GConfType(k value.Kind) (string, error) {
	switch k {
	case value.Bool:
		return "bool", nil
	case value.Int, value.Uint:
		return "int", nil
	case value.String:
		return "string", nil
	}
	return "", fmt.Errorf("no gconf type for kind %s", k)
}
