package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/mkdgcheck/internal/config"
)

var (
	cfgPath      string
	backendFlag  string
	logLevelFlag string
	noColor      bool

	// appCfg is loaded once per invocation by the root pre-run hook.
	appCfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mkdgcheck",
	Short: "Round-trip harness for dialog configuration backends",
	Long: `mkdgcheck writes typed values through a configuration backend and
confirms each write with the store's own command-line tool, restoring the
original value afterwards.

Examples:
  mkdgcheck run --backend gsettings
  mkdgcheck run write_uint write_string --backend gconf2
  mkdgcheck history
  mkdgcheck recover --backend gsettings`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/mkdgcheck/config.yaml or MKDG_CONFIG)")
	pf.StringVar(&backendFlag, "backend", "", "backend variant, overrides backend.variant")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd, listCmd, recoverCmd, doctorCmd, historyCmd, serveCmd, configCmd)
}

// loadConfig layers CLI flags over the file and environment and installs the
// default logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	// config set must work even when the current file does not validate.
	if cmd == configSetCmd {
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend.Variant = backendFlag
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevelFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	appCfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
