package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/config"
	"github.com/kalambet/mkdgcheck/internal/harness"
	"github.com/kalambet/mkdgcheck/internal/journal"
)

// --- doctor ---

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured backend's tools are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		writeStatus(out, "Config", "%s", config.Path(cfgPath))
		writeStatus(out, "Data dir", "%s", appCfg.Storage.DataDir)

		w, err := wire(appCfg)
		if err != nil {
			return err
		}
		writeStatus(out, "Backend", "%s", w.backend.Name())
		writeStatus(out, "Schema", "%s (%d keys)", w.schema.ID, len(w.schema.Keys))

		if err := command.EnsureTools(lookPath, out, w.tools(appCfg)...); err != nil {
			return &exitError{code: harness.ExitProbeUnavailable, err: err}
		}

		j, err := journal.Open(appCfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
		pending, err := j.Pending()
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			printWarning("%d key(s) awaiting recovery", len(pending))
			return nil
		}
		printSuccess("Ready")
		return nil
	},
}
