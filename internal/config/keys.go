package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "backend.variant", typ: kString, env: "MKDG_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Backend.Variant = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Variant },
	},
	{
		key: "backend.schema_file", typ: kString, env: "MKDG_SCHEMA_FILE",
		apply:   func(cfg *Config, v any) { cfg.Backend.SchemaFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.SchemaFile },
	},
	{
		key: "backend.gconf_dir", typ: kString, env: "MKDG_GCONF_DIR",
		apply:   func(cfg *Config, v any) { cfg.Backend.GConfDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.GConfDir },
	},
	{
		key: "backend.dconf_tool", typ: kString, env: "MKDG_DCONF_TOOL",
		apply:   func(cfg *Config, v any) { cfg.Backend.DconfTool = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.DconfTool },
	},
	{
		key: "probe.gsettings_tool", typ: kString, env: "MKDG_GSETTINGS_TOOL",
		apply:   func(cfg *Config, v any) { cfg.Probe.GSettingsTool = v.(string) },
		extract: func(cfg Config) any { return cfg.Probe.GSettingsTool },
	},
	{
		key: "probe.gconf_tool", typ: kString, env: "MKDG_GCONF_TOOL",
		apply:   func(cfg *Config, v any) { cfg.Probe.GConfTool = v.(string) },
		extract: func(cfg Config) any { return cfg.Probe.GConfTool },
	},
	{
		key: "storage.data_dir", typ: kString, env: "MKDG_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "MKDG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "run.jobs", typ: kInt, env: "MKDG_JOBS",
		apply:   func(cfg *Config, v any) { cfg.Run.Jobs = v.(int) },
		extract: func(cfg Config) any { return cfg.Run.Jobs },
	},
	{
		key: "serve.addr", typ: kString, env: "MKDG_SERVE_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Serve.Addr = v.(string) },
		extract: func(cfg Config) any { return cfg.Serve.Addr },
	},
	{
		key: "serve.token", typ: kString, env: "MKDG_SERVE_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Serve.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Serve.Token },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
