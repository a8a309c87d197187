package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Backend BackendConfig
	Probe   ProbeConfig
	Storage StorageConfig
	Log     LogConfig
	Run     RunConfig
	Serve   ServeConfig
}

type BackendConfig struct {
	// Variant selects the backend. Empty means none is configured.
	Variant    string
	SchemaFile string
	GConfDir   string
	DconfTool  string
}

type ProbeConfig struct {
	GSettingsTool string
	GConfTool     string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type RunConfig struct {
	Jobs int
}

type ServeConfig struct {
	Addr  string
	// Token, when set, is required as a bearer token by the history API.
	// It is only read from the environment.
	Token string
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			GConfDir:  "/desktop/ibus/engine",
			DconfTool: "dconf",
		},
		Probe: ProbeConfig{
			GSettingsTool: "gsettings",
			GConfTool:     "gconftool-2",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Run: RunConfig{
			Jobs: 1,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:4100",
		},
	}
}

// Path resolves the config file location: the explicit path if given, then
// MKDG_CONFIG, then $XDG_CONFIG_HOME/mkdgcheck/config.yaml.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("MKDG_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath()
}

// Load reads configuration from defaults, the YAML file at Path(path), and
// MKDG_* environment variables, in that order of precedence. A missing file
// is not an error.
func Load(path string) (Config, error) {
	b, err := newFileBackend(Path(path))
	if err != nil {
		return Config{}, err
	}
	return loadWith(b)
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can work with. An empty backend
// variant is allowed here; commands that need a backend report it.
func (c Config) Validate() error {
	if c.Run.Jobs < 1 {
		return fmt.Errorf("invalid config: run.jobs must be at least 1, got %d", c.Run.Jobs)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("invalid config: storage.data_dir is empty")
	}
	return nil
}
